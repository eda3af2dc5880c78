package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/api/v1/model/response"
	"github.com/darkkaiser/review-console/internal/service/contract"
)

// SubmitReviewHandler 머지 리퀘스트 코드 리뷰 작업을 제출합니다.
//
// 성공하면 202와 함께 작업 핸들({task_id, kind, submitted_at})을 반환합니다.
// 같은 머지 리퀘스트의 리뷰가 이미 진행 중이면 백엔드가 거부하며 409로 응답합니다.
func (h *Handler) SubmitReviewHandler(c echo.Context) error {
	return submit(c, h, h.taskService.TriggerReview)
}

// SubmitSyncHandler GitLab 동기화 작업을 제출합니다. 본문이 비어 있으면 전체 동기화입니다.
func (h *Handler) SubmitSyncHandler(c echo.Context) error {
	return submit(c, h, h.taskService.TriggerSync)
}

// SubmitTemplateGenerationHandler AI 프롬프트 템플릿 생성 작업을 제출합니다.
func (h *Handler) SubmitTemplateGenerationHandler(c echo.Context) error {
	return submit(c, h, h.taskService.GenerateTemplate)
}

func submit[P contract.Params](c echo.Context, h *Handler, trigger func(context.Context, P) (contract.TaskHandle, error)) error {
	var params P
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&params); err != nil {
			return NewErrInvalidBody()
		}
	}
	if err := c.Validate(&params); err != nil {
		return err
	}

	handle, err := trigger(c.Request().Context(), params)
	if err != nil {
		return err
	}

	h.log(c).WithFields(map[string]any{
		"task_id": handle.ID,
		"kind":    handle.Kind.String(),
	}).Info("작업 제출 완료")

	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/tasks/"+handle.Kind.Kebab()+"/"+handle.ID.String())
	return c.JSON(http.StatusAccepted, handle)
}

// GetTaskHandler 작업의 마지막 관찰을 반환합니다.
//
// 캐시된 관찰이 없으면 작업 관찰을 시작하고 첫 관찰을 snapshotWait 동안 기다립니다.
// 그 안에 도착하지 않으면 Retry-After와 함께 503으로 응답합니다.
func (h *Handler) GetTaskHandler(c echo.Context) error {
	handle, err := handleFromPath(c)
	if err != nil {
		return err
	}

	if obs, ok := h.latest(handle); ok {
		return c.JSON(http.StatusOK, obs)
	}

	first := make(chan contract.Observation, 1)
	sub, err := h.taskService.Subscribe(handle, func(obs contract.Observation) {
		select {
		case first <- obs:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer h.taskService.Unsubscribe(sub)

	timer := time.NewTimer(h.snapshotWait)
	defer timer.Stop()

	select {
	case obs := <-first:
		return c.JSON(http.StatusOK, obs)
	case <-timer.C:
		c.Response().Header().Set(constants.HeaderRetryAfter, "1")
		return NewErrSnapshotNotReady()
	case <-c.Request().Context().Done():
		return apperrors.Wrap(c.Request().Context().Err(), apperrors.Timeout, "작업 상태를 기다리는 중 요청이 취소되었습니다")
	}
}

// latest 캐시된 관찰 중 경로의 작업 종류와 일치하는 것만 돌려줍니다.
func (h *Handler) latest(handle contract.TaskHandle) (contract.Observation, bool) {
	obs, ok := h.taskService.Latest(handle.ID)
	if !ok || obs.Handle.Kind != handle.Kind {
		return contract.Observation{}, false
	}
	return obs, true
}

// GetResultHandler 성공한 작업의 결과를 반환합니다. 성공이 관찰되기 전에는 409로 응답합니다.
func (h *Handler) GetResultHandler(c echo.Context) error {
	handle, err := handleFromPath(c)
	if err != nil {
		return err
	}

	result, err := h.taskService.FetchResult(c.Request().Context(), handle)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// CancelTaskHandler 작업을 취소하고 최종 결과를 반환합니다.
//
// 백엔드가 취소를 확인하지 않으면 유예 시간 뒤 콘솔에서 취소로 확정하므로, 응답은 유예 시간 안에 돌아옵니다.
// 이미 끝난 작업이면 race_lost=true로 응답합니다.
func (h *Handler) CancelTaskHandler(c echo.Context) error {
	handle, err := handleFromPath(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.cancelWait)
	defer cancel()

	outcome, err := h.taskService.Cancel(ctx, handle)
	if err != nil {
		return err
	}

	h.log(c).WithFields(map[string]any{
		"task_id":   handle.ID,
		"kind":      handle.Kind.String(),
		"cancelled": outcome.Cancelled(),
		"race_lost": outcome.RaceLost,
		"forced":    outcome.Forced,
	}).Info("작업 취소 처리 완료")

	return c.JSON(http.StatusOK, response.CancelResponse{
		Observation: outcome.Observation,
		Cancelled:   outcome.Cancelled(),
		RaceLost:    outcome.RaceLost,
		Forced:      outcome.Forced,
	})
}
