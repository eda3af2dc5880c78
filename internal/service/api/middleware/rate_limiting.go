package middleware

import (
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/darkkaiser/review-console/internal/service/api/constants"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// maxTrackedIPs 추적하는 IP 수의 상한입니다. 넘으면 모든 limiter를 비우고 다시 시작합니다.
const maxTrackedIPs = 10000

// ipRateLimiter IP 주소별 토큰 버킷을 관리합니다.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	rate  rate.Limit
	burst int
}

func newIPRateLimiter(requestsPerSecond float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limiter, exists := i.limiters[ip]; exists {
		return limiter
	}

	if len(i.limiters) >= maxTrackedIPs {
		applog.WithComponentAndFields(constants.ComponentMiddlewareRateLimit, applog.Fields{
			"tracked_ips": len(i.limiters),
		}).Warn("추적 중인 IP 수가 상한에 도달하여 속도 제한 상태를 초기화합니다")
		clear(i.limiters)
	}

	limiter := rate.NewLimiter(i.rate, i.burst)
	i.limiters[ip] = limiter

	return limiter
}

// RateLimiting 클라이언트 IP별로 초당 요청 수를 제한합니다. 제한을 넘으면 Retry-After와 함께 429를 돌려줍니다.
//
// requestsPerSecond 또는 burst가 0 이하이면 패닉이 발생합니다.
func RateLimiting(requestsPerSecond float64, burst int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 || burst <= 0 {
		panic(fmt.Sprintf(constants.PanicMsgRateLimitInvalid, requestsPerSecond, burst))
	}

	limiter := newIPRateLimiter(requestsPerSecond, burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.getLimiter(ip).Allow() {
				applog.WithComponentAndFields(constants.ComponentMiddlewareRateLimit, applog.Fields{
					"remote_ip": ip,
					"path":      c.Request().URL.Path,
					"method":    c.Request().Method,
				}).Warn("요청 속도 제한 초과")

				c.Response().Header().Set(constants.HeaderRetryAfter, "1")
				return ErrRateLimitExceeded
			}

			return next(c)
		}
	}
}
