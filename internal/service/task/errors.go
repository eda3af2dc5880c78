package task

import (
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

var (
	// ErrServiceNotRunning 작업 서비스가 시작되지 않았거나 이미 종료되었을 때 반환되는 에러입니다.
	ErrServiceNotRunning = apperrors.New(apperrors.Unavailable, "작업 서비스가 현재 실행 중이지 않아 요청을 수행할 수 없습니다")

	// ErrResultKindMismatch 조회한 결과의 종류가 요청한 결과 형식과 다를 때 반환되는 에러입니다.
	ErrResultKindMismatch = apperrors.New(apperrors.InvalidInput, "작업 종류와 요청한 결과 형식이 일치하지 않습니다")
)
