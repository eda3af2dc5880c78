// Package system 헬스체크, 버전, 작업 레지스트리 통계 등 시스템 엔드포인트 핸들러를 제공합니다.
package system

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/pkg/version"
	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/api/model/system"
	"github.com/darkkaiser/review-console/internal/service/task/registry"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// TaskService 시스템 핸들러가 조회하는 작업 서비스의 상태입니다.
type TaskService interface {
	Running() bool
	Stats() registry.Stats
}

// Notifier 알림 서비스의 활성화 여부입니다.
type Notifier interface {
	Enabled() bool
}

// Handler 시스템 엔드포인트 핸들러
type Handler struct {
	taskService TaskService
	notifier    Notifier

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler 시스템 핸들러를 생성합니다. notifier는 nil일 수 있으며 이 경우 알림은 비활성화 상태로 보고됩니다.
func NewHandler(taskService TaskService, notifier Notifier, buildInfo version.Info) *Handler {
	if taskService == nil {
		panic(constants.PanicMsgTaskServiceRequired)
	}

	return &Handler{
		taskService:     taskService,
		notifier:        notifier,
		buildInfo:       buildInfo,
		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler 서버와 의존 서비스의 상태를 반환합니다.
// 작업 서비스가 실행 중이 아니면 503으로 응답하여 로드밸런서와 모니터링이 이를 감지할 수 있게 합니다.
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/health",
		"remote_ip": c.RealIP(),
	}).Debug("헬스체크 요청")

	deps := map[string]system.DependencyStatus{}

	if h.taskService.Running() {
		deps[constants.DependencyTaskService] = system.DependencyStatus{Status: constants.HealthStatusHealthy}
	} else {
		deps[constants.DependencyTaskService] = system.DependencyStatus{
			Status:  constants.HealthStatusUnhealthy,
			Message: "작업 서비스가 실행 중이 아닙니다",
		}
	}

	if h.notifier != nil && h.notifier.Enabled() {
		deps[constants.DependencyNotificationService] = system.DependencyStatus{Status: constants.HealthStatusHealthy}
	} else {
		deps[constants.DependencyNotificationService] = system.DependencyStatus{Status: constants.HealthStatusDisabled}
	}

	status, code := constants.HealthStatusHealthy, http.StatusOK
	for _, dep := range deps {
		if dep.Status == constants.HealthStatusUnhealthy {
			status, code = constants.HealthStatusUnhealthy, http.StatusServiceUnavailable
			break
		}
	}

	return c.JSON(code, system.HealthResponse{
		Status:       status,
		Uptime:       int64(time.Since(h.serverStartTime).Seconds()),
		Dependencies: deps,
	})
}

func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, system.VersionResponse{
		Version:     h.buildInfo.Version,
		Commit:      h.buildInfo.Commit,
		BuildDate:   h.buildInfo.BuildDate,
		BuildNumber: h.buildInfo.BuildNumber,
		GoVersion:   h.buildInfo.GoVersion,
	})
}

// StatsHandler 작업 레지스트리의 현재 상태를 반환합니다.
func (h *Handler) StatsHandler(c echo.Context) error {
	stats := h.taskService.Stats()

	return c.JSON(http.StatusOK, system.StatsResponse{
		Entries:     stats.Entries,
		Watching:    stats.Watching,
		InFlight:    stats.InFlight,
		Subscribers: stats.Subscribers,
	})
}
