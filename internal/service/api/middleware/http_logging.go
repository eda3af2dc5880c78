package middleware

import (
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/service/api/constants"
	applog "github.com/darkkaiser/review-console/pkg/log"
	"github.com/darkkaiser/review-console/pkg/strutil"
)

// sensitiveQueryParams 로그에 남길 때 값을 마스킹할 쿼리 파라미터입니다.
var sensitiveQueryParams = []string{"token", "access_token", "api_key", "password", "secret"}

// HTTPLogger 요청/응답을 구조화된 로그 한 줄로 기록합니다.
//
// 다음 핸들러의 에러는 여기서 c.Error로 처리하므로, 로그에는 에러 핸들러가 결정한 최종 상태 코드가 남습니다.
func HTTPLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			defer func() {
				latency := time.Since(start)

				path := req.URL.Path
				if path == "" {
					path = "/"
				}

				bytesIn := req.Header.Get(echo.HeaderContentLength)
				if bytesIn == "" {
					bytesIn = "0"
				}

				entry := applog.WithComponentAndFields(constants.ComponentMiddlewareHTTPLogger, applog.Fields{
					"method":        req.Method,
					"path":          path,
					"uri":           maskSensitiveQueryParams(req.RequestURI),
					"route":         c.Path(),
					"remote_ip":     c.RealIP(),
					"user_agent":    req.UserAgent(),
					"status":        res.Status,
					"bytes_in":      bytesIn,
					"bytes_out":     strconv.FormatInt(res.Size, 10),
					"latency":       strconv.FormatInt(latency.Microseconds(), 10),
					"latency_human": latency.String(),
					"request_id":    res.Header().Get(echo.HeaderXRequestID),
				})

				if res.Status >= 500 {
					entry.Error("HTTP 요청")
				} else {
					entry.Info("HTTP 요청")
				}
			}()

			if err := next(c); err != nil {
				c.Error(err)
			}

			return nil
		}
	}
}

// maskSensitiveQueryParams URI의 민감한 쿼리 값을 가립니다. 해석할 수 없는 URI는 그대로 돌려줍니다.
func maskSensitiveQueryParams(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}

	q := u.Query()
	masked := false
	for _, param := range sensitiveQueryParams {
		if q.Has(param) {
			q.Set(param, strutil.Mask(q.Get(param)))
			masked = true
		}
	}
	if !masked {
		return uri
	}

	u.RawQuery = q.Encode()
	return u.String()
}
