package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/api/httputil"
	appmiddleware "github.com/darkkaiser/review-console/internal/service/api/middleware"
	v1 "github.com/darkkaiser/review-console/internal/service/api/v1"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// HTTPServerConfig HTTP 서버 생성에 필요한 설정입니다.
type HTTPServerConfig struct {
	Debug bool

	// AllowOrigins CORS에서 허용할 Origin 목록. 콘솔 프론트엔드의 Origin만 명시하는 것을 권장합니다.
	AllowOrigins []string

	// RateLimit IP별 초당 허용 요청 수, RateBurst 순간 최대 요청 수
	RateLimit float64
	RateBurst int

	// BodyLimit 요청 본문 최대 크기 (예: "1M")
	BodyLimit string

	// RequestTimeout 일반 요청의 최대 처리 시간. 0이면 기본값(60초)을 사용합니다.
	RequestTimeout time.Duration
}

// NewHTTPServer 미들웨어 체인이 설정된 Echo 인스턴스를 생성합니다. 라우트는 포함하지 않습니다.
//
// 미들웨어 순서:
//
//  1. PanicRecovery: 다른 미들웨어의 panic까지 복구하도록 가장 먼저 둡니다.
//  2. RequestID: 로그에 request_id가 남도록 로깅보다 앞에 둡니다.
//  3. Server 헤더 제거
//  4. HTTPLogger: 뒤쪽 미들웨어가 만든 429, 503 응답도 기록합니다.
//  5. RateLimiting
//  6. BodyLimit
//  7. ContextTimeout: 요청 컨텍스트에 제한 시간을 겁니다. SSE 스트림은 제외합니다.
//  8. CORS
//  9. Secure
//
// SSE 스트림이 오래 열려 있어야 하므로 http.Server의 WriteTimeout은 설정하지 않으며,
// 응답 writer를 감싸는 TimeoutMiddleware 대신 ContextTimeout을 사용합니다.
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = constants.DefaultReadTimeout
	e.Server.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	e.Server.IdleTimeout = constants.DefaultIdleTimeout

	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}
	e.HTTPErrorHandler = httputil.ErrorHandler
	e.Validator = httputil.Validator{}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = constants.DefaultRequestTimeout
	}

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(appmiddleware.HTTPLogger())
	e.Use(appmiddleware.RateLimiting(cfg.RateLimit, cfg.RateBurst))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Skipper: isEventStream,
		Timeout: timeout,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		ExposeHeaders: []string{echo.HeaderLocation, constants.HeaderRetryAfter, echo.HeaderXRequestID},
	}))
	e.Use(middleware.Secure())

	return e
}

func isEventStream(c echo.Context) bool {
	return strings.HasSuffix(c.Path(), v1.EventsPathSuffix)
}
