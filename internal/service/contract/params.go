package contract

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Params 작업 제출 요청의 종류별 입력값입니다.
// ReviewParams, SyncParams, TemplateGenerationParams 중 하나입니다.
type Params interface {
	Kind() Kind
	Validate() error
}

// ReviewParams 머지 리퀘스트 코드 리뷰 실행 요청입니다.
type ReviewParams struct {
	MergeRequestID     int64  `json:"merge_request_id" validate:"required,gt=0"`
	Force              bool   `json:"force,omitempty"`
	TemplateID         *int64 `json:"template_id,omitempty" validate:"omitempty,gt=0"`
	CustomInstructions string `json:"custom_instructions,omitempty" validate:"max=4000"`
}

func (ReviewParams) Kind() Kind { return KindReview }

func (p ReviewParams) Validate() error { return validateParams(p) }

// SyncScope GitLab 동기화 범위입니다.
type SyncScope string

const (
	SyncScopeAll          SyncScope = "all"
	SyncScopeProject      SyncScope = "project"
	SyncScopeRepositories SyncScope = "repositories"
)

// SyncParams GitLab 동기화 요청입니다. 값을 지정하지 않으면 전체 동기화입니다.
type SyncParams struct {
	Scope     SyncScope `json:"scope,omitempty" validate:"omitempty,oneof=all project repositories"`
	ProjectID int64     `json:"project_id,omitempty" validate:"required_if=Scope project,gte=0"`
}

func (SyncParams) Kind() Kind { return KindSync }

func (p SyncParams) Validate() error { return validateParams(p) }

// EffectiveScope 비어 있는 Scope를 전체 동기화로 해석합니다.
func (p SyncParams) EffectiveScope() SyncScope {
	if p.Scope == "" {
		return SyncScopeAll
	}
	return p.Scope
}

// TemplateGenerationParams AI 프롬프트 템플릿 생성 요청입니다.
type TemplateGenerationParams struct {
	Prompt            string   `json:"prompt" validate:"required,max=10000"`
	SelectedVariables []string `json:"selected_variables,omitempty" validate:"dive,required"`
	TemplateName      string   `json:"template_name,omitempty" validate:"max=255"`
	Description       string   `json:"description,omitempty" validate:"max=1000"`
}

func (TemplateGenerationParams) Kind() Kind { return KindTemplateGeneration }

func (p TemplateGenerationParams) Validate() error { return validateParams(p) }

func validateParams(p Params) error {
	if err := validate.Struct(p); err != nil {
		return apperrors.Wrapf(err, apperrors.InvalidInput, "%s 작업 요청 값이 올바르지 않습니다", p.Kind())
	}
	return nil
}
