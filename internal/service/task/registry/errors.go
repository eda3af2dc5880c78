package registry

import (
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

var (
	// ErrNotRunning 이벤트 루프가 시작되지 않았거나 이미 종료되었습니다.
	ErrNotRunning = apperrors.New(apperrors.Unavailable, "작업 레지스트리가 실행 중이 아닙니다")

	ErrNilSubscriber = apperrors.New(apperrors.InvalidInput, "구독 콜백은 nil일 수 없습니다")
)
