package poller

import (
	"time"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

const (
	DefaultInterval             = 2 * time.Second
	DefaultMaxInterval          = 30 * time.Second
	DefaultMaxTransientFailures = 3
	DefaultCancelGrace          = 10 * time.Second
)

// Policy 폴링 간격, 재시도 백오프, 취소 유예 시간을 정의합니다.
type Policy struct {
	// Interval 정상 응답 이후 다음 상태 조회까지의 고정 간격이자 백오프의 기준값입니다.
	Interval time.Duration

	// MaxInterval 백오프 간격의 상한입니다.
	MaxInterval time.Duration

	// MaxTransientFailures 이 횟수만큼 연속으로 일시적 실패가 발생하면 Unknown 관찰을 한 번 내보냅니다.
	// 이후에도 재시도는 계속됩니다.
	MaxTransientFailures int

	// CancelGrace 취소 요청 후 백엔드의 종료 확인을 기다리는 최대 시간입니다.
	CancelGrace time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Interval:             DefaultInterval,
		MaxInterval:          DefaultMaxInterval,
		MaxTransientFailures: DefaultMaxTransientFailures,
		CancelGrace:          DefaultCancelGrace,
	}
}

func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return apperrors.Newf(apperrors.InvalidInput, "폴링 간격은 0보다 커야 합니다: %s", p.Interval)
	}
	if p.MaxInterval < p.Interval {
		return apperrors.Newf(apperrors.InvalidInput, "최대 폴링 간격(%s)은 폴링 간격(%s)보다 작을 수 없습니다", p.MaxInterval, p.Interval)
	}
	if p.MaxTransientFailures < 1 {
		return apperrors.Newf(apperrors.InvalidInput, "최대 연속 실패 횟수는 1 이상이어야 합니다: %d", p.MaxTransientFailures)
	}
	if p.CancelGrace <= 0 {
		return apperrors.Newf(apperrors.InvalidInput, "취소 유예 시간은 0보다 커야 합니다: %s", p.CancelGrace)
	}
	return nil
}

// Backoff 연속 실패 횟수에 따른 재시도 대기 시간입니다.
//
// Interval × 2^(failures-1)이며 MaxInterval을 넘지 않습니다. (Interval=1s: 1s, 2s, 4s, 8s, 16s, 30s, 30s, ...)
func (p Policy) Backoff(failures int) time.Duration {
	if failures <= 1 {
		return min(p.Interval, p.MaxInterval)
	}

	delay := p.Interval
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= p.MaxInterval || delay <= 0 {
			return p.MaxInterval
		}
	}
	return delay
}
