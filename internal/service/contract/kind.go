package contract

import (
	"strings"

	"github.com/iancoleman/strcase"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

// Kind 작업을 생성한 도메인 흐름의 종류입니다. 종류에 따라 백엔드 엔드포인트와 결과 형태가 달라집니다.
type Kind int

const (
	KindUnknown Kind = iota
	KindReview
	KindSync
	KindTemplateGeneration
)

// Kinds 지원하는 모든 작업 종류입니다.
var Kinds = []Kind{KindReview, KindSync, KindTemplateGeneration}

var kindNames = map[Kind]string{
	KindReview:             strcase.ToSnake("Review"),
	KindSync:               strcase.ToSnake("Sync"),
	KindTemplateGeneration: strcase.ToSnake("TemplateGeneration"),
}

// String snake_case 이름을 반환합니다 (review, sync, template_generation).
// 설정 키와 로그 필드, API 경로에서 같은 이름을 사용합니다.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kebab API 경로에 사용하는 kebab-case 이름을 반환합니다 (template-generation).
func (k Kind) Kebab() string {
	return strcase.ToKebab(k.String())
}

func (k Kind) Validate() error {
	if _, ok := kindNames[k]; !ok {
		return apperrors.Newf(apperrors.InvalidInput, "지원하지 않는 작업 종류입니다: %d", int(k))
	}
	return nil
}

// ParseKind snake_case, kebab-case, CamelCase 표기를 모두 받아들입니다.
func ParseKind(s string) (Kind, error) {
	normalized := strcase.ToSnake(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == normalized {
			return k, nil
		}
	}
	return KindUnknown, apperrors.Newf(apperrors.InvalidInput, "알 수 없는 작업 종류입니다: %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
