package task

import (
	"context"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
)

// TriggerReview 머지 리퀘스트의 AI 코드 리뷰를 제출합니다.
func (s *Service) TriggerReview(ctx context.Context, params contract.ReviewParams) (contract.TaskHandle, error) {
	return s.Submit(ctx, params)
}

// TriggerSync GitLab 동기화를 제출합니다. 같은 범위의 동기화가 이미 진행 중이면 백엔드가 거부합니다.
func (s *Service) TriggerSync(ctx context.Context, params contract.SyncParams) (contract.TaskHandle, error) {
	return s.Submit(ctx, params)
}

func (s *Service) GenerateTemplate(ctx context.Context, params contract.TemplateGenerationParams) (contract.TaskHandle, error) {
	return s.Submit(ctx, params)
}

// ReviewResult 성공한 리뷰 작업의 결과를 조회합니다.
func (s *Service) ReviewResult(ctx context.Context, handle contract.TaskHandle) (contract.ReviewResult, error) {
	return fetchTyped[contract.ReviewResult](ctx, s, handle, contract.KindReview)
}

// SyncResult 성공한 동기화 작업의 요약을 조회합니다.
func (s *Service) SyncResult(ctx context.Context, handle contract.TaskHandle) (contract.SyncResult, error) {
	return fetchTyped[contract.SyncResult](ctx, s, handle, contract.KindSync)
}

// TemplateGenerationResult 성공한 템플릿 생성 작업의 결과를 조회합니다.
func (s *Service) TemplateGenerationResult(ctx context.Context, handle contract.TaskHandle) (contract.TemplateGenerationResult, error) {
	return fetchTyped[contract.TemplateGenerationResult](ctx, s, handle, contract.KindTemplateGeneration)
}

func fetchTyped[T contract.Result](ctx context.Context, s *Service, handle contract.TaskHandle, kind contract.Kind) (T, error) {
	var zero T

	if handle.Kind != kind {
		return zero, apperrors.Wrapf(ErrResultKindMismatch, apperrors.InvalidInput, "%s 작업에서 %s 결과를 조회할 수 없습니다", handle.Kind, kind)
	}

	res, err := s.FetchResult(ctx, handle)
	if err != nil {
		return zero, err
	}

	payload, ok := res.Payload.(T)
	if !ok {
		return zero, apperrors.Wrapf(ErrResultKindMismatch, apperrors.Internal, "%s 작업의 결과 형식이 올바르지 않습니다: %T", handle.Kind, res.Payload)
	}

	return payload, nil
}
