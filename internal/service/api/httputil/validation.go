package httputil

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator echo.Validator 구현체입니다. 요청 값이 스스로를 검증하는 Validate() error 메서드를 가지고 있으면 이를 호출합니다.
type Validator struct{}

func (Validator) Validate(i any) error {
	if v, ok := i.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

// FormatValidationError 에러 체인에 validator 검증 오류가 있으면 첫 번째 필드 오류를 한글 메시지로 바꿉니다.
// 검증 오류가 없으면 빈 문자열을 반환합니다.
func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return ""
	}

	return formatFieldError(validationErrors[0])
}

func formatFieldError(fieldErr validator.FieldError) string {
	field := fieldErr.Field()

	switch fieldErr.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s는 필수입니다", field)
	case "gt":
		return fmt.Sprintf("%s는 %s보다 커야 합니다", field, fieldErr.Param())
	case "gte", "min":
		return fmt.Sprintf("%s는 최소 %s 이상이어야 합니다", field, fieldErr.Param())
	case "max":
		if fieldErr.Kind().String() == "string" {
			return fmt.Sprintf("%s는 최대 %s자까지 입력 가능합니다", field, fieldErr.Param())
		}
		return fmt.Sprintf("%s는 최대 %s까지 입력 가능합니다", field, fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("%s는 다음 중 하나여야 합니다: %s", field, fieldErr.Param())
	default:
		return fmt.Sprintf("%s 검증 실패: %s", field, fieldErr.Tag())
	}
}
