package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "review-console"

	// DefaultFilename 실행 인자로 경로가 주어지지 않았을 때 읽는 설정 파일명입니다.
	DefaultFilename = AppName + ".json"

	// EnvPrefix 설정을 덮어쓰는 환경 변수의 접두사입니다.
	// 예: RCONSOLE_BACKEND__TOKEN -> backend.token
	EnvPrefix = "RCONSOLE_"
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug     bool            `json:"debug"`
	Backend   BackendConfig   `json:"backend"`
	Polling   PollingConfig   `json:"polling"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Notifier  NotifierConfig  `json:"notifier"`
	API       APIConfig       `json:"api"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := c.Backend.validate(v); err != nil {
		return err
	}
	if err := checkStruct(v, c.Polling, "작업 상태 조회(polling)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Scheduler.Sync, "동기화 스케줄러(scheduler.sync)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Notifier.Telegram, "텔레그램 알림(notifier.telegram)"); err != nil {
		return err
	}
	if err := c.API.validate(v); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 서비스 운영의 안정성과 보안을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if strings.TrimSpace(c.Backend.Token) == "" {
		warnings = append(warnings, "백엔드 인증 토큰(backend.token)이 비어 있습니다. 인증이 필요한 백엔드라면 모든 요청이 401로 실패합니다")
	}
	if c.Polling.Interval < time.Second {
		warnings = append(warnings, fmt.Sprintf("상태 조회 간격(polling.interval: %s)이 1초보다 짧습니다. 백엔드에 과도한 부하를 줄 수 있습니다", c.Polling.Interval))
	}
	warnings = append(warnings, c.API.VerifyRecommendations()...)

	return warnings
}

// BackendConfig 리뷰 백엔드 접속 정보와 작업 종류별 엔드포인트 계열을 정의하는 설정 구조체
type BackendConfig struct {
	BaseURL        string                    `json:"base_url" validate:"required,http_url"`
	Token          string                    `json:"token"`
	RequestTimeout time.Duration             `json:"request_timeout" validate:"gt=0"`
	RateLimit      float64                   `json:"rate_limit" validate:"gt=0"`
	RateBurst      int                       `json:"rate_burst" validate:"min=1"`
	MaxBodyBytes   int64                     `json:"max_body_bytes" validate:"min=1024"`
	Endpoints      map[string]EndpointConfig `json:"endpoints" validate:"required"`
}

func (c *BackendConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "백엔드(backend)"); err != nil {
		return err
	}

	for _, kind := range contract.Kinds {
		if _, ok := c.Endpoints[kind.String()]; !ok {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("작업 종류('%s')의 엔드포인트 설정(backend.endpoints.%s)이 없습니다", kind, kind))
		}
	}
	for name, ep := range c.Endpoints {
		if _, err := contract.ParseKind(name); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("알 수 없는 작업 종류의 엔드포인트 설정입니다: '%s'", name))
		}
		if err := checkStruct(v, ep, fmt.Sprintf("엔드포인트(backend.endpoints.%s)", name)); err != nil {
			return err
		}
	}

	return nil
}

// EndpointConfig 작업 종류 하나의 엔드포인트 계열입니다.
// 경로는 BaseURL 기준 상대 경로이며 {task_id}, {merge_request_id}, {project_id} 자리표시자를 사용할 수 있습니다.
type EndpointConfig struct {
	// Submit 제출 경로입니다. 키는 제출 방식(review/template_generation: default, sync: all/project/repositories)입니다.
	Submit map[string]string `json:"submit" validate:"required,min=1,dive,required,startswith=/"`
	Status string            `json:"status" validate:"required,startswith=/"`

	// Result 결과 조회 경로입니다. 비어 있으면 상태 문서의 result 필드를 결과로 사용합니다.
	Result string `json:"result" validate:"omitempty,startswith=/"`

	Cancel       string `json:"cancel" validate:"required,startswith=/"`
	CancelMethod string `json:"cancel_method" validate:"oneof=POST DELETE"`

	// ProgressScale 백엔드가 보고하는 진행률의 단위입니다. fraction(0..1) 또는 percent(0..100).
	ProgressScale string `json:"progress_scale" validate:"oneof=fraction percent"`
}

// PollingConfig 작업 상태 조회 주기와 재시도, 취소 유예, 캐시 보관 정책을 정의하는 설정 구조체
type PollingConfig struct {
	Interval             time.Duration `json:"interval" validate:"gt=0"`
	MaxInterval          time.Duration `json:"max_interval" validate:"gtefield=Interval"`
	MaxTransientFailures int           `json:"max_transient_failures" validate:"min=1"`
	CancelGrace          time.Duration `json:"cancel_grace" validate:"gt=0"`
	CacheTTL             time.Duration `json:"cache_ttl" validate:"gte=0"`
	TerminalRetention    time.Duration `json:"terminal_retention" validate:"gte=0"`
}

// SchedulerConfig 주기적으로 실행하는 백그라운드 작업 설정 구조체
type SchedulerConfig struct {
	Sync SyncScheduleConfig `json:"sync"`
}

// SyncScheduleConfig 주기적인 GitLab 전체 동기화 설정입니다. TimeSpec은 초 단위를 포함한 6필드 Cron 표현식입니다.
type SyncScheduleConfig struct {
	Enabled  bool          `json:"enabled"`
	TimeSpec string        `json:"time_spec" validate:"required_if=Enabled true,omitempty,cron_spec"`
	Timeout  time.Duration `json:"timeout" validate:"gt=0"`
}

// NotifierConfig 작업 종료 알림 채널 설정 구조체
type NotifierConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체
type TelegramConfig struct {
	Enabled   bool    `json:"enabled"`
	BotToken  string  `json:"bot_token" validate:"required_if=Enabled true,omitempty,telegram_bot_token"`
	ChatID    int64   `json:"chat_id" validate:"required_if=Enabled true"`
	QueueSize int     `json:"queue_size" validate:"min=1"`
	RateLimit float64 `json:"rate_limit" validate:"gt=0"`
	RateBurst int     `json:"rate_burst" validate:"min=1"`

	// Kinds 알림을 보낼 작업 종류 목록입니다. 비어 있으면 모든 종류를 알립니다.
	Kinds []string `json:"kinds" validate:"dive,task_kind"`
}

// APIConfig 브라우저용 로컬 작업 API 서버 설정 구조체
type APIConfig struct {
	Enabled       bool          `json:"enabled"`
	ListenAddress string        `json:"listen_address" validate:"required_if=Enabled true,omitempty,hostname_port"`
	CORS          CORSConfig    `json:"cors"`
	RateLimit     float64       `json:"rate_limit" validate:"gt=0"`
	RateBurst     int           `json:"rate_burst" validate:"min=1"`
	BodyLimit     string        `json:"body_limit" validate:"required"`
	SnapshotWait  time.Duration `json:"snapshot_wait" validate:"gte=0"`
}

func (c *APIConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "작업 API(api)"); err != nil {
		return err
	}

	for _, origin := range c.CORS.AllowOrigins {
		if origin == "*" && len(c.CORS.AllowOrigins) > 1 {
			return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
		}
	}

	return nil
}

func (c *APIConfig) VerifyRecommendations() []string {
	if !c.Enabled {
		return nil
	}

	var warnings []string

	if host, _, err := net.SplitHostPort(c.ListenAddress); err == nil && (host == "" || host == "0.0.0.0" || host == "::") {
		warnings = append(warnings, fmt.Sprintf("작업 API가 모든 네트워크 인터페이스(%s)에서 수신하도록 설정되었습니다. 인증 없는 API이므로 내부망에서만 노출하세요", c.ListenAddress))
	}
	for _, origin := range c.CORS.AllowOrigins {
		if origin == "*" {
			warnings = append(warnings, "CORS 허용 도메인이 와일드카드(*)로 설정되었습니다")
		}
	}

	return warnings
}

// CORSConfig 웹 브라우저의 교차 출처 리소스 공유(CORS) 정책을 설정하는 구조체
type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" validate:"min=1,dive,cors_origin"`
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(DefaultAppConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 구분자: 이중 언더스코어(__)를 점(.)으로 변환 (계층 구조 표현)
	// 예: RCONSOLE_POLLING__INTERVAL -> polling.interval
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (Strict Validation 적용)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused:      true, // 파일에 존재하지만 구조체에 없는 필드가 있을 경우 에러를 발생시킴
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(defaultValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
