package contract

import (
	"errors"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

var (
	// ErrSubmissionRejected 백엔드가 작업 생성을 거부했습니다. 재시도해도 결과가 같으므로 사용자에게 그대로 보여줍니다.
	ErrSubmissionRejected = apperrors.New(apperrors.Conflict, "작업 생성이 거부되었습니다")

	// ErrTaskNotFound 백엔드에 해당 작업의 기록이 없습니다. 폴러는 이를 로컬 종료(Failed)로 처리합니다.
	ErrTaskNotFound = apperrors.New(apperrors.NotFound, "작업을 찾을 수 없습니다")

	// ErrInvalidState 성공이 관찰되기 전에 결과를 요청하는 등 호출 순서가 잘못되었습니다.
	ErrInvalidState = apperrors.New(apperrors.Internal, "작업 상태가 요청을 처리할 수 없는 상태입니다")
)

// NewSubmissionRejectedError 백엔드가 전달한 사유를 담아 ErrSubmissionRejected를 감쌉니다.
func NewSubmissionRejectedError(reason string) error {
	return apperrors.Wrap(ErrSubmissionRejected, apperrors.Conflict, reason)
}

func NewTaskNotFoundError(handle TaskHandle) error {
	return apperrors.Wrapf(ErrTaskNotFound, apperrors.NotFound, "작업(%s)이 백엔드에 존재하지 않습니다", handle)
}

func NewInvalidStateError(handle TaskHandle, status Status) error {
	return apperrors.Wrapf(ErrInvalidState, apperrors.Internal, "작업(%s)의 상태(%s)에서는 결과를 조회할 수 없습니다", handle, status)
}

func IsSubmissionRejected(err error) bool { return errors.Is(err, ErrSubmissionRejected) }

func IsTaskNotFound(err error) bool { return errors.Is(err, ErrTaskNotFound) }

func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
