// Package mark 알림 메시지에서 작업 상태를 표시하는 이모지 상수입니다.
package mark

// Mark 이모지 하나입니다.
type Mark string

const (
	Succeeded Mark = "✅"
	Failed    Mark = "❌"
	Cancelled Mark = "⏹"

	// Unknown 백엔드와 연락이 끊겨 상태를 확인할 수 없음
	Unknown Mark = "⚠️"

	InProgress Mark = "⏳"
)

// Values 정의된 모든 마크입니다.
func Values() []Mark {
	return []Mark{Succeeded, Failed, Cancelled, Unknown, InProgress}
}

func (m Mark) String() string {
	return string(m)
}

// WithSpace 마크 뒤에 구분용 공백을 붙입니다. 빈 마크는 빈 문자열입니다.
func (m Mark) WithSpace() string {
	if m == "" {
		return ""
	}
	return string(m) + " "
}
