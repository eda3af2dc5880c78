package handler

import (
	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/api/httputil"
)

// NewErrInvalidBody 요청 본문이 올바른 JSON이 아니거나 필드 형식이 맞지 않을 때의 400 에러입니다.
func NewErrInvalidBody() error {
	return httputil.NewBadRequestError(constants.ErrMsgInvalidBody)
}

// NewErrSnapshotNotReady 기다리는 동안 작업의 첫 관찰이 도착하지 않았을 때의 503 에러입니다.
func NewErrSnapshotNotReady() error {
	return httputil.NewServiceUnavailableError(constants.ErrMsgSnapshotNotReady)
}
