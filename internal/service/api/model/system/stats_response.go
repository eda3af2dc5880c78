package system

// StatsResponse 작업 레지스트리 상태 요약 응답
type StatsResponse struct {
	// Entries 레지스트리가 기억하고 있는 작업 수
	Entries int `json:"entries"`

	// Watching 상태를 조회(폴링) 중인 작업 수
	Watching int `json:"watching"`

	// InFlight 응답을 기다리는 백엔드 상태 조회 수
	InFlight int `json:"in_flight"`

	Subscribers int `json:"subscribers"`
}
