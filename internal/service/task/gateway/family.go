package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/darkkaiser/review-console/internal/config"
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
)

// variantDefault 제출 방식이 하나뿐인 작업 종류의 제출 경로 키입니다.
const variantDefault = "default"

// submitVariants 작업 종류별로 반드시 설정되어야 하는 제출 경로 키입니다.
var submitVariants = map[contract.Kind][]string{
	contract.KindReview: {variantDefault},
	contract.KindSync: {
		string(contract.SyncScopeAll),
		string(contract.SyncScopeProject),
		string(contract.SyncScopeRepositories),
	},
	contract.KindTemplateGeneration: {variantDefault},
}

type progressScale int

const (
	scaleFraction progressScale = iota
	scalePercent
)

// percent 백엔드가 보고한 진행률을 0..100 정수로 변환합니다.
func (s progressScale) percent(v float64) int {
	if s == scaleFraction {
		v *= 100
	}
	return int(v + 0.5)
}

// family 작업 종류 하나의 엔드포인트 계열입니다.
type family struct {
	kind contract.Kind

	submit       map[string]string
	status       string
	result       string
	cancel       string
	cancelMethod string
	scale        progressScale
}

func newFamily(kind contract.Kind, c config.EndpointConfig) (family, error) {
	f := family{
		kind:         kind,
		submit:       c.Submit,
		status:       c.Status,
		result:       c.Result,
		cancel:       c.Cancel,
		cancelMethod: strings.ToUpper(c.CancelMethod),
		scale:        scaleFraction,
	}
	if c.ProgressScale == "percent" {
		f.scale = scalePercent
	}
	if f.cancelMethod == "" {
		f.cancelMethod = http.MethodPost
	}

	for _, variant := range submitVariants[kind] {
		if _, ok := f.submit[variant]; !ok {
			return family{}, apperrors.Newf(apperrors.InvalidInput, "%s 작업의 제출 경로(submit.%s)가 설정되지 않았습니다", kind, variant)
		}
	}

	for name, path := range map[string]string{"status": f.status, "cancel": f.cancel, "result": f.result} {
		if path != "" && !strings.Contains(path, "{task_id}") {
			return family{}, apperrors.Newf(apperrors.InvalidInput, "%s 작업의 %s 경로에 {task_id} 자리표시자가 없습니다: '%s'", kind, name, path)
		}
	}

	return f, nil
}

// embeddedResult 별도의 결과 엔드포인트 없이 상태 문서의 result 필드에 결과가 담기는지 여부입니다.
func (f family) embeddedResult() bool {
	return f.result == ""
}

func (f family) statusRequest(id contract.TaskID) (request, error) {
	path, err := expandPath(f.status, map[string]string{"task_id": id.String()})
	return request{method: http.MethodGet, path: path}, err
}

func (f family) resultRequest(id contract.TaskID) (request, error) {
	tmpl := f.result
	if f.embeddedResult() {
		tmpl = f.status
	}
	path, err := expandPath(tmpl, map[string]string{"task_id": id.String()})
	return request{method: http.MethodGet, path: path}, err
}

func (f family) cancelRequest(id contract.TaskID) (request, error) {
	path, err := expandPath(f.cancel, map[string]string{"task_id": id.String()})
	return request{method: f.cancelMethod, path: path}, err
}

// submitRequest 작업 종류별 입력값을 제출 요청으로 변환합니다.
// 리뷰와 동기화는 경로와 쿼리로, 템플릿 생성은 JSON 본문으로 입력값을 전달합니다.
func (f family) submitRequest(params contract.Params) (request, error) {
	switch p := params.(type) {
	case contract.ReviewParams:
		path, err := expandPath(f.submit[variantDefault], map[string]string{
			"merge_request_id": strconv.FormatInt(p.MergeRequestID, 10),
		})
		if err != nil {
			return request{}, err
		}

		query := url.Values{}
		if p.Force {
			query.Set("force", "true")
		}
		if p.TemplateID != nil {
			query.Set("template_id", strconv.FormatInt(*p.TemplateID, 10))
		}
		if p.CustomInstructions != "" {
			query.Set("custom_instructions", p.CustomInstructions)
		}

		return request{method: http.MethodPost, path: path, query: query}, nil

	case contract.SyncParams:
		scope := p.EffectiveScope()
		tmpl, ok := f.submit[string(scope)]
		if !ok {
			return request{}, apperrors.Newf(apperrors.InvalidInput, "지원하지 않는 동기화 범위입니다: '%s'", scope)
		}

		vars := map[string]string{}
		if scope == contract.SyncScopeProject {
			vars["project_id"] = strconv.FormatInt(p.ProjectID, 10)
		}
		path, err := expandPath(tmpl, vars)
		if err != nil {
			return request{}, err
		}

		return request{method: http.MethodPost, path: path}, nil

	case contract.TemplateGenerationParams:
		body, err := json.Marshal(p)
		if err != nil {
			return request{}, apperrors.Wrap(err, apperrors.Internal, "템플릿 생성 요청 본문을 만들지 못했습니다")
		}

		return request{method: http.MethodPost, path: f.submit[variantDefault], body: body}, nil
	}

	return request{}, apperrors.Newf(apperrors.Internal, "%s 작업 계열이 처리할 수 없는 요청 형식입니다: %T", f.kind, params)
}

// expandPath 경로 템플릿의 {name} 자리표시자를 이스케이프한 값으로 치환합니다.
// 치환되지 않은 자리표시자가 남으면 에러를 반환합니다.
func expandPath(tmpl string, vars map[string]string) (string, error) {
	path := tmpl
	for name, value := range vars {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	if strings.Contains(path, "{") {
		return "", apperrors.New(apperrors.Internal, fmt.Sprintf("경로 템플릿('%s')에 값이 지정되지 않은 자리표시자가 있습니다", tmpl))
	}

	return path, nil
}
