package contract

import "time"

// TaskHandle 제출된 작업 하나를 식별합니다. 값 타입이며 생성 이후 변경되지 않습니다.
type TaskHandle struct {
	ID          TaskID    `json:"task_id"`
	Kind        Kind      `json:"kind"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewTaskHandle 이미 발급된 작업 ID로 핸들을 만듭니다. 다른 화면에서 제출된 작업을 나중에 구독할 때 사용합니다.
func NewTaskHandle(kind Kind, id TaskID, submittedAt time.Time) TaskHandle {
	return TaskHandle{ID: id, Kind: kind, SubmittedAt: submittedAt}
}

func (h TaskHandle) Validate() error {
	if err := h.ID.Validate(); err != nil {
		return err
	}
	return h.Kind.Validate()
}

func (h TaskHandle) String() string {
	return h.Kind.String() + "/" + h.ID.String()
}
