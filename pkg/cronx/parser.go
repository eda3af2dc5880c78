// Package cronx 애플리케이션 표준 Cron 표현식 파서와 검증 함수를 제공합니다.
package cronx

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// StandardParser 초 단위를 포함하는 6필드 형식([초] [분] [시] [일] [월] [요일])과
// @daily, @every 1h 같은 Descriptor를 지원하는 파서를 반환합니다. 표준 5필드 형식은 지원하지 않습니다.
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate spec이 StandardParser로 해석 가능한지 검사합니다.
func Validate(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return fmt.Errorf("cron 표현식이 비어 있습니다")
	}

	if _, err := StandardParser().Parse(spec); err != nil {
		return fmt.Errorf("잘못된 cron 표현식입니다 (%q, 형식: 초 분 시 일 월 요일): %w", spec, err)
	}

	return nil
}
