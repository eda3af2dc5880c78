package middleware

import (
	"mime"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/service/api/constants"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// ValidateContentType 본문이 있는 요청의 미디어 타입이 expected인지 검사합니다. 본문이 없는 요청은 통과시킵니다.
func ValidateContentType(expected string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.ContentLength == 0 {
				return next(c)
			}

			contentType := req.Header.Get(echo.HeaderContentType)
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != expected {
				applog.WithComponentAndFields(constants.ComponentMiddlewareContentType, applog.Fields{
					"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
					"method":     req.Method,
					"path":       req.URL.Path,
					"expected":   expected,
					"actual":     contentType,
				}).Warn("지원하지 않는 Content-Type 요청")

				return ErrUnsupportedMediaType
			}

			return next(c)
		}
	}
}
