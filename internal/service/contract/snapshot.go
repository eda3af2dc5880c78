package contract

import "time"

// Snapshot 작업의 마지막으로 관찰된 상태입니다.
type Snapshot struct {
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	Message     string     `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// ObservedAt 이 스냅샷을 관찰(수신 또는 합성)한 로컬 시각입니다.
	ObservedAt time.Time `json:"observed_at"`
}

func (s Snapshot) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// Normalize 스냅샷 불변식을 맞춘 사본을 반환합니다.
//
//   - Progress는 0..100 범위로 제한됩니다.
//   - Error는 Failed 상태에서만 유지됩니다.
//   - 종료 상태인데 CompletedAt이 없으면 ObservedAt으로 채웁니다.
func (s Snapshot) Normalize() Snapshot {
	s.Progress = max(0, min(100, s.Progress))

	if s.Status != StatusFailed {
		s.Error = ""
	}
	if s.Status.IsTerminal() && s.CompletedAt == nil {
		completedAt := s.ObservedAt
		s.CompletedAt = &completedAt
	}

	return s
}

// Supersedes s가 prev보다 완료 정도가 같거나 앞서 있는지 판단합니다.
//
// Pending < Running < 종료 상태 순이며, 같은 진행 중 상태에서는 진행률이 줄어들 수 없습니다.
// 종료 상태인 prev는 어떤 스냅샷으로도 대체되지 않습니다.
func (s Snapshot) Supersedes(prev Snapshot) bool {
	if prev.Status.IsTerminal() {
		return false
	}
	if r, pr := s.Status.rank(), prev.Status.rank(); r != pr {
		return r > pr
	}
	return s.Progress >= prev.Progress
}

// ObservationKind 구독자에게 전달되는 관찰의 출처입니다.
type ObservationKind int

const (
	// ObservedSnapshot 백엔드가 보고한 스냅샷
	ObservedSnapshot ObservationKind = iota

	// ObservedUnknown 연속된 일시적 실패로 백엔드와 연락이 끊긴 상태 (로컬 전용)
	// Snapshot에는 마지막으로 알려진 백엔드 스냅샷이 들어 있습니다.
	ObservedUnknown

	// ObservedLocalTerminal 로컬에서 합성한 종료 스냅샷
	// 유예 시간 안에 취소가 확인되지 않은 경우(Cancelled)와 백엔드에 작업 기록이 없는 경우(Failed)입니다.
	ObservedLocalTerminal
)

var observationKindNames = [...]string{
	ObservedSnapshot:      "snapshot",
	ObservedUnknown:       "unknown",
	ObservedLocalTerminal: "local_terminal",
}

func (k ObservationKind) String() string {
	if k < 0 || int(k) >= len(observationKindNames) {
		return "invalid"
	}
	return observationKindNames[k]
}

func (k ObservationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Observation 구독자가 받는 한 번의 관찰입니다.
// "백엔드가 Failed라고 보고함"과 "연락이 끊김"을 Kind로 구분합니다.
type Observation struct {
	Handle   TaskHandle      `json:"handle"`
	Kind     ObservationKind `json:"kind"`
	Snapshot Snapshot        `json:"snapshot"`

	ConsecutiveFailures int `json:"consecutive_failures,omitempty"`

	// Err Unknown 관찰의 원인이 된 마지막 일시적 오류, 또는 로컬 종료의 원인입니다.
	Err error `json:"-"`
}

// IsTerminal 이 관찰 이후 해당 작업에 대한 관찰이 더 이상 없는지 여부입니다.
func (o Observation) IsTerminal() bool {
	return o.Kind != ObservedUnknown && o.Snapshot.IsTerminal()
}

// IsLocal 백엔드가 아닌 로컬에서 만들어진 관찰인지 여부입니다.
func (o Observation) IsLocal() bool {
	return o.Kind != ObservedSnapshot
}
