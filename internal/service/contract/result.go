package contract

import "time"

// Result 작업 종류별 결과 페이로드입니다.
// ReviewResult, SyncResult, TemplateGenerationResult 중 하나입니다.
type Result interface {
	Kind() Kind
}

// ReviewResult 코드 리뷰 결과입니다. 리뷰 본문은 ReviewID로 별도 조회합니다.
type ReviewResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	ReviewID int64  `json:"review_id,omitempty"`
}

func (ReviewResult) Kind() Kind { return KindReview }

// SyncResult 동기화 요약입니다. 백엔드가 돌려준 요약 문서를 그대로 보관합니다.
type SyncResult struct {
	Summary map[string]any `json:"summary"`
}

func (SyncResult) Kind() Kind { return KindSync }

type TemplateGenerationResult struct {
	Success          bool     `json:"success"`
	TemplateContent  string   `json:"template_content,omitempty"`
	VariablesUsed    []string `json:"variables_used,omitempty"`
	TokensUsed       int      `json:"tokens_used,omitempty"`
	GenerationTime   float64  `json:"generation_time,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
	GenerationStatus string   `json:"generation_status,omitempty"`
	Message          string   `json:"message,omitempty"`
}

func (TemplateGenerationResult) Kind() Kind { return KindTemplateGeneration }

// TaskResult 성공한 작업에서 조회한 결과입니다. 같은 작업에 대해 다시 조회해도 같은 값을 얻습니다.
type TaskResult struct {
	Handle    TaskHandle `json:"handle"`
	Payload   Result     `json:"payload"`
	FetchedAt time.Time  `json:"fetched_at"`
}
