package log

import (
	"fmt"
	"os"
)

// Options 로깅 시스템 초기화 옵션입니다.
type Options struct {
	Name  string // 로그 파일명에 사용될 애플리케이션 식별자
	Dir   string // 로그 디렉토리 (기본값: logs)
	Level Level  // 최소 로그 레벨 (0이면 INFO)

	MaxAge     int // 보관 일수 (0: 삭제하지 않음)
	MaxSizeMB  int // 파일 하나당 최대 크기 (0: 100MB)
	MaxBackups int // 로테이션 파일 최대 개수 (0: 20개)

	EnableCriticalLog bool // ERROR 이상을 별도 파일(<name>.critical.log)로 분리
	EnableVerboseLog  bool // DEBUG 이하를 별도 파일(<name>.verbose.log)로 분리
	EnableConsoleLog  bool // 표준 출력에도 기록

	ReportCaller     bool
	CallerPathPrefix string // 호출 위치 출력 시 잘라낼 패키지 경로 접두사
}

// Validate 옵션 값의 유효성을 검사합니다.
func (opts *Options) Validate() error {
	if opts.Name == "" {
		return fmt.Errorf("애플리케이션 식별자(Name)가 설정되지 않았습니다")
	}
	if opts.Dir != "" {
		if info, err := os.Stat(opts.Dir); err == nil && !info.IsDir() {
			return fmt.Errorf("로그 디렉토리 경로(%s)가 이미 파일로 존재합니다", opts.Dir)
		}
	}
	if opts.MaxAge < 0 || opts.MaxSizeMB < 0 || opts.MaxBackups < 0 {
		return fmt.Errorf("MaxAge, MaxSizeMB, MaxBackups는 0 이상이어야 합니다 (%d, %d, %d)", opts.MaxAge, opts.MaxSizeMB, opts.MaxBackups)
	}

	return nil
}

// NewProductionOptions 운영 환경용 옵션을 반환합니다.
func NewProductionOptions(appName string) Options {
	return Options{
		Name:              appName,
		Level:             InfoLevel,
		MaxAge:            30,
		EnableCriticalLog: true,
		EnableVerboseLog:  true,
		ReportCaller:      true,
		CallerPathPrefix:  "github.com/darkkaiser",
	}
}

// NewDevelopmentOptions 개발 환경용 옵션을 반환합니다. 파일은 하나로 합치고 터미널에도 출력합니다.
func NewDevelopmentOptions(appName string) Options {
	return Options{
		Name:             appName,
		Level:            TraceLevel,
		MaxAge:           1,
		MaxSizeMB:        50,
		MaxBackups:       5,
		EnableConsoleLog: true,
		ReportCaller:     true,
		CallerPathPrefix: "github.com/darkkaiser",
	}
}
