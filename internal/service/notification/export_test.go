package notification

// Enqueue 테스트에서 대기열 동작을 직접 확인하기 위해 노출합니다.
func (s *Service) Enqueue(m Message) error {
	return s.enqueue(m)
}
