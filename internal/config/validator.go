package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/pkg/cronx"
)

var (
	// 텔레그램 봇 토큰 검증을 위한 정규식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
	telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

	defaultValidator = sync.OnceValue(newValidator)
)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 검증 에러가 났을 때, 에러 메시지에 Go 구조체 필드명(예: ListenAddress) 대신 JSON 이름(예: listen_address)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	customs := map[string]validator.Func{
		"cors_origin":        validateCORSOrigin,
		"telegram_bot_token": validateTelegramBotToken,
		"cron_spec":          validateCronSpec,
		"task_kind":          validateTaskKind,
	}
	for tag, fn := range customs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("초기화 치명적 오류: '%s' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", tag, err))
		}
	}

	return v
}

// validateCORSOrigin Origin이 'Scheme://Host[:Port]' 형식인지 검사합니다. 와일드카드('*')는 허용합니다.
func validateCORSOrigin(fl validator.FieldLevel) bool {
	origin := strings.TrimSpace(fl.Field().String())
	if origin == "*" {
		return true
	}
	if origin == "" || strings.HasSuffix(origin, "/") {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Hostname() != "" && u.Path == "" && u.RawQuery == "" && u.Fragment == "" && u.User == nil
}

func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

func validateCronSpec(fl validator.FieldLevel) bool {
	return cronx.Validate(fl.Field().String()) == nil
}

func validateTaskKind(fl validator.FieldLevel) bool {
	_, err := contract.ParseKind(fl.Field().String())
	return err == nil
}

// checkStruct 구조체 인스턴스의 유효성을 태그 규칙에 따라 검증하고, 발생한 오류를 사용자 친화적인 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s any, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	// 첫 번째 에러만 상세히 보고
	firstErr := validationErrors[0]

	switch firstErr.Tag() {
	case "cors_origin":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%v' (형식: Scheme://Host[:Port], 예: https://example.com)", firstErr.Value()))

	case "telegram_bot_token":
		return apperrors.New(apperrors.InvalidInput, "텔레그램 BotToken 형식이 올바르지 않습니다 (올바른 형식: 123456:ABC-DEF...)")

	case "cron_spec":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 Cron 표현식(%s)이 올바르지 않습니다: '%v' (예: 0 0 3 * * *)", contextName, firstErr.Field(), firstErr.Value()))

	case "task_kind":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s에 알 수 없는 작업 종류가 있습니다: '%v' (review, sync, template_generation)", contextName, firstErr.Value()))

	case "hostname_port":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 수신 주소(%s)는 'host:port' 형식이어야 합니다: '%v'", contextName, firstErr.Field(), firstErr.Value()))
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Namespace(), firstErr.Tag()))
}
