// Package v1 작업 API의 v1 라우트를 정의합니다.
//
// 주요 엔드포인트:
//   - POST   /api/v1/tasks/reviews                 - 코드 리뷰 작업 제출
//   - POST   /api/v1/tasks/syncs                   - GitLab 동기화 작업 제출
//   - POST   /api/v1/tasks/template-generations    - 프롬프트 템플릿 생성 작업 제출
//   - GET    /api/v1/tasks/:kind/:id               - 작업의 마지막 관찰
//   - GET    /api/v1/tasks/:kind/:id/events        - 작업 관찰 스트림 (SSE)
//   - GET    /api/v1/tasks/:kind/:id/result        - 성공한 작업의 결과
//   - DELETE /api/v1/tasks/:kind/:id               - 작업 취소
package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/service/api/middleware"
	"github.com/darkkaiser/review-console/internal/service/api/v1/handler"
)

// EventsPathSuffix 요청 제한 시간을 적용하지 않는 SSE 경로의 접미사입니다.
const EventsPathSuffix = "/events"

// RegisterRoutes Echo 인스턴스에 /api/v1 작업 라우트를 등록합니다.
// 제출 엔드포인트는 JSON 본문만 받습니다.
func RegisterRoutes(e *echo.Echo, h *handler.Handler) {
	tasks := e.Group("/api/v1/tasks")

	requireJSON := middleware.ValidateContentType(echo.MIMEApplicationJSON)
	tasks.POST("/reviews", h.SubmitReviewHandler, requireJSON)
	tasks.POST("/syncs", h.SubmitSyncHandler, requireJSON)
	tasks.POST("/template-generations", h.SubmitTemplateGenerationHandler, requireJSON)

	tasks.GET("/:kind/:id", h.GetTaskHandler)
	tasks.GET("/:kind/:id"+EventsPathSuffix, h.EventsHandler)
	tasks.GET("/:kind/:id/result", h.GetResultHandler)
	tasks.DELETE("/:kind/:id", h.CancelTaskHandler)
}
