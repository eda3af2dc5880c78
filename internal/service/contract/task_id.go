package contract

import (
	"strings"
	"unicode"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

// TaskID 백엔드가 작업 제출 시점에 발급하는 불투명한 작업 식별자입니다. 한 번 발급되면 변하지 않습니다.
type TaskID string

func (id TaskID) IsEmpty() bool {
	return len(id) == 0
}

// Validate URL 경로에 그대로 삽입되므로 공백과 '/'를 허용하지 않습니다.
func (id TaskID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.InvalidInput, "TaskID는 필수입니다")
	}
	if strings.ContainsFunc(string(id), func(r rune) bool { return r == '/' || unicode.IsSpace(r) }) {
		return apperrors.Newf(apperrors.InvalidInput, "TaskID에 공백이나 '/'를 포함할 수 없습니다: %q", string(id))
	}
	return nil
}

func (id TaskID) String() string {
	return string(id)
}
