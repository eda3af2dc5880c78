package notification

import (
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

var (
	// ErrQueueFull 발송 대기열이 가득 차서 알림이 버려졌습니다.
	ErrQueueFull = apperrors.New(apperrors.Unavailable, "알림 발송 대기열이 가득 차 있습니다")

	// ErrClosed 알림 서비스가 실행 중이 아닙니다.
	ErrClosed = apperrors.New(apperrors.Unavailable, "알림 서비스가 실행 중이 아닙니다")

	// ErrDisabled 알림이 비활성화되어 있어 전송하지 않았습니다.
	ErrDisabled = apperrors.New(apperrors.Unavailable, "알림이 비활성화되어 있습니다")
)
