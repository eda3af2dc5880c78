package api

import (
	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/service/api/handler/system"
)

// RegisterRoutes 인증이 필요 없는 시스템 엔드포인트(/health, /version, /stats)를 등록합니다.
func RegisterRoutes(e *echo.Echo, h *system.Handler) {
	e.GET("/health", h.HealthCheckHandler)
	e.GET("/version", h.VersionHandler)
	e.GET("/stats", h.StatsHandler)
}
