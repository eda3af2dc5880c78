package middleware

import (
	"fmt"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/api/httputil"
)

var (
	// ErrRateLimitExceeded 허용된 요청 빈도를 넘은 클라이언트에게 돌려주는 429 에러입니다.
	ErrRateLimitExceeded = httputil.NewTooManyRequestsError(constants.ErrMsgTooManyRequests)

	// ErrUnsupportedMediaType 본문의 Content-Type이 JSON이 아닐 때 돌려주는 415 에러입니다.
	ErrUnsupportedMediaType = httputil.NewUnsupportedMediaTypeError(constants.ErrMsgUnsupportedMediaType)
)

// NewErrPanicRecovered 복구한 패닉 값을 내부 오류로 감쌉니다.
func NewErrPanicRecovered(r any) error {
	if err, ok := r.(error); ok {
		return apperrors.Wrap(err, apperrors.Internal, "핸들러 실행 중 패닉이 발생했습니다")
	}
	return apperrors.New(apperrors.Internal, fmt.Sprintf("핸들러 실행 중 패닉이 발생했습니다: %v", r))
}
