package contract

import (
	"strings"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

// Status 백엔드가 보고한 작업 상태입니다.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
	StatusCancelled
)

var statusNames = [...]string{
	StatusPending:   "pending",
	StatusRunning:   "running",
	StatusSucceeded: "succeeded",
	StatusFailed:    "failed",
	StatusCancelled: "cancelled",
}

// 백엔드마다 다른 표기를 하나의 상태로 모읍니다.
var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"queued":      StatusPending,
	"running":     StatusRunning,
	"in_progress": StatusRunning,
	"processing":  StatusRunning,
	"completed":   StatusSucceeded,
	"succeeded":   StatusSucceeded,
	"success":     StatusSucceeded,
	"failed":      StatusFailed,
	"error":       StatusFailed,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "invalid"
	}
	return statusNames[s]
}

// IsTerminal Succeeded, Failed, Cancelled는 종료 상태이며 이후 어떤 전이도 일어나지 않습니다.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// rank 완료 정도의 순서입니다. 종료 상태끼리는 같은 순위입니다.
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	default:
		return 2
	}
}

func ParseStatus(s string) (Status, error) {
	if status, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return status, nil
	}
	return StatusPending, apperrors.Newf(apperrors.ParsingFailed, "알 수 없는 작업 상태입니다: %q", s)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
