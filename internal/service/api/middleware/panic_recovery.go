package middleware

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/service/api/constants"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// stackBufferSize 패닉 스택 트레이스를 담을 버퍼 크기 (4KB)
const stackBufferSize = 4 << 10

// PanicRecovery 핸들러의 패닉을 복구하여 서버가 중단되지 않도록 하고, 스택 트레이스와 함께 기록합니다.
// http.ErrAbortHandler는 net/http가 연결을 끊기 위해 쓰는 값이므로 그대로 다시 던집니다.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				stack := make([]byte, stackBufferSize)
				length := runtime.Stack(stack, false)

				err := NewErrPanicRecovered(r)
				applog.WithComponentAndFields(constants.ComponentMiddlewarePanicRecovery, applog.Fields{
					"error":      err,
					"path":       c.Request().URL.Path,
					"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
					"stack":      string(stack[:length]),
				}).Error("PANIC RECOVERED: 핸들러 패닉을 복구했습니다")

				returnErr = err
			}()

			return next(c)
		}
	}
}
