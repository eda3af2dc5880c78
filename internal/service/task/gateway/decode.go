package gateway

import (
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
)

// timestampLayouts 백엔드가 사용하는 시각 표기입니다. 시간대가 없는 값은 UTC로 해석합니다.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseJSON(op string, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, apperrors.Newf(apperrors.ParsingFailed, "%s 응답이 올바른 JSON 형식이 아닙니다", op)
	}
	return gjson.ParseBytes(body), nil
}

// decodeSubmit 제출 응답에서 작업 ID를 꺼냅니다.
// success가 false이거나 task_id가 비어 있으면 백엔드가 작업 생성을 거부한 것으로 봅니다.
func decodeSubmit(body []byte) (contract.TaskID, error) {
	doc, err := parseJSON("작업 제출", body)
	if err != nil {
		return "", err
	}

	if success := doc.Get("success"); success.Exists() && !success.Bool() {
		reason := doc.Get("message").String()
		if reason == "" {
			reason = "백엔드가 작업 생성을 거부했습니다"
		}
		return "", contract.NewSubmissionRejectedError(reason)
	}

	id := contract.TaskID(doc.Get("task_id").String())
	if id.IsEmpty() {
		return "", contract.NewSubmissionRejectedError("제출 응답에 작업 ID(task_id)가 없습니다")
	}
	if err := id.Validate(); err != nil {
		return "", err
	}

	return id, nil
}

// decodeSnapshot 상태 문서를 스냅샷으로 변환합니다. ObservedAt과 정규화는 호출자가 채웁니다.
func decodeSnapshot(body []byte, scale progressScale) (contract.Snapshot, error) {
	doc, err := parseJSON("상태 조회", body)
	if err != nil {
		return contract.Snapshot{}, err
	}

	status, err := contract.ParseStatus(doc.Get("status").String())
	if err != nil {
		return contract.Snapshot{}, err
	}

	s := contract.Snapshot{
		Status:      status,
		Progress:    scale.percent(doc.Get("progress").Float()),
		Message:     doc.Get("message").String(),
		StartedAt:   parseTimestamp(doc.Get("started_at")),
		CompletedAt: parseTimestamp(doc.Get("completed_at")),
		Error:       doc.Get("error").String(),
	}
	if s.Error == "" {
		s.Error = doc.Get("error_message").String()
	}

	return s, nil
}

func parseTimestamp(v gjson.Result) *time.Time {
	if v.Type != gjson.String || v.String() == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v.String()); err == nil {
			return &t
		}
	}

	return nil
}

// decodeResult 결과 문서를 작업 종류별 결과로 변환합니다.
// 상태 문서에 결과가 담기는 계열은 문서의 result 필드를 결과 문서로 사용합니다.
func decodeResult(kind contract.Kind, body []byte, embedded bool) (contract.Result, error) {
	doc, err := parseJSON("결과 조회", body)
	if err != nil {
		return nil, err
	}
	if embedded {
		doc = doc.Get("result")
	}

	switch kind {
	case contract.KindReview:
		return contract.ReviewResult{
			Success:  boolOr(doc.Get("success"), true),
			Message:  doc.Get("message").String(),
			ReviewID: doc.Get("review_id").Int(),
		}, nil

	case contract.KindSync:
		summary := map[string]any{}
		if m, ok := doc.Value().(map[string]any); ok {
			summary = m
		}
		return contract.SyncResult{Summary: summary}, nil

	case contract.KindTemplateGeneration:
		content := doc.Get("template_content").String()
		if content == "" {
			content = doc.Get("content").String()
		}
		return contract.TemplateGenerationResult{
			Success:          boolOr(doc.Get("success"), true),
			TemplateContent:  content,
			VariablesUsed:    stringArray(doc.Get("variables_used")),
			TokensUsed:       int(doc.Get("tokens_used").Int()),
			GenerationTime:   doc.Get("generation_time").Float(),
			ValidationErrors: stringArray(doc.Get("validation_errors")),
			GenerationStatus: doc.Get("generation_status").String(),
			Message:          doc.Get("message").String(),
		}, nil
	}

	return nil, apperrors.Newf(apperrors.Internal, "결과를 해석할 수 없는 작업 종류입니다: %s", kind)
}

func boolOr(v gjson.Result, def bool) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.Bool()
}

func stringArray(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}

	var out []string
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out
}
