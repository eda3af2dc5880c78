// Package handler v1 작업 API의 HTTP 요청 핸들러를 제공합니다.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/internal/service/task/cancellation"
	"github.com/darkkaiser/review-console/internal/service/task/registry"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// TaskService 핸들러가 사용하는 작업 서비스의 기능입니다. *task.Service가 이를 만족합니다.
type TaskService interface {
	TriggerReview(ctx context.Context, params contract.ReviewParams) (contract.TaskHandle, error)
	TriggerSync(ctx context.Context, params contract.SyncParams) (contract.TaskHandle, error)
	GenerateTemplate(ctx context.Context, params contract.TemplateGenerationParams) (contract.TaskHandle, error)

	Subscribe(handle contract.TaskHandle, fn registry.Subscriber) (registry.Subscription, error)
	Unsubscribe(sub registry.Subscription)
	Latest(id contract.TaskID) (contract.Observation, bool)

	FetchResult(ctx context.Context, handle contract.TaskHandle) (contract.TaskResult, error)
	Cancel(ctx context.Context, handle contract.TaskHandle) (cancellation.Outcome, error)
}

// Handler v1 작업 API 핸들러입니다.
type Handler struct {
	taskService TaskService

	// snapshotWait 캐시된 관찰이 없을 때 첫 관찰을 기다리는 최대 시간
	snapshotWait time.Duration

	keepAlive  time.Duration
	cancelWait time.Duration
}

func NewHandler(taskService TaskService, snapshotWait time.Duration) *Handler {
	if taskService == nil {
		panic(constants.PanicMsgTaskServiceRequired)
	}

	return &Handler{
		taskService:  taskService,
		snapshotWait: snapshotWait,
		keepAlive:    constants.EventStreamKeepAlive,
		cancelWait:   constants.CancelWaitTimeout,
	}
}

func (h *Handler) log(c echo.Context) *applog.Entry {
	return applog.WithComponentAndFields(constants.ComponentTaskHandler, applog.Fields{
		"method":     c.Request().Method,
		"path":       c.Path(),
		"remote_ip":  c.RealIP(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

// handleFromPath 경로의 :kind와 :id로 작업 핸들을 만듭니다. 종류는 snake_case와 kebab-case를 모두 받습니다.
func handleFromPath(c echo.Context) (contract.TaskHandle, error) {
	kind, err := contract.ParseKind(c.Param("kind"))
	if err != nil {
		return contract.TaskHandle{}, err
	}

	handle := contract.NewTaskHandle(kind, contract.TaskID(c.Param("id")), time.Time{})
	if err := handle.Validate(); err != nil {
		return contract.TaskHandle{}, err
	}

	return handle, nil
}
