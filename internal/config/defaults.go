package config

import "time"

const (
	// ------------------------------------------------------------------------------------------------
	// 백엔드 호출 기본값
	// ------------------------------------------------------------------------------------------------

	DefaultBackendBaseURL        = "http://127.0.0.1:8000/api"
	DefaultBackendRequestTimeout = 15 * time.Second
	DefaultBackendRateLimit      = 20.0
	DefaultBackendRateBurst      = 10

	// DefaultBackendMaxBodyBytes 응답 본문을 읽을 최대 크기입니다. 템플릿 생성 결과가 가장 큽니다.
	DefaultBackendMaxBodyBytes = 4 << 20

	// ------------------------------------------------------------------------------------------------
	// 상태 조회 기본값
	// ------------------------------------------------------------------------------------------------

	DefaultPollingInterval             = 2 * time.Second
	DefaultPollingMaxInterval          = 30 * time.Second
	DefaultPollingMaxTransientFailures = 3
	DefaultPollingCancelGrace          = 10 * time.Second
	DefaultPollingCacheTTL             = 30 * time.Second
	DefaultPollingTerminalRetention    = 10 * time.Minute

	// ------------------------------------------------------------------------------------------------
	// 스케줄러, 알림, API 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultSyncTimeSpec 매일 새벽 3시 (초 단위 포함 6필드)
	DefaultSyncTimeSpec = "0 0 3 * * *"
	DefaultSyncTimeout  = 30 * time.Minute

	DefaultTelegramQueueSize = 100
	DefaultTelegramRateLimit = 1.0
	DefaultTelegramRateBurst = 5

	DefaultAPIListenAddress = "127.0.0.1:8090"
	DefaultAPIRateLimit     = 20.0
	DefaultAPIRateBurst     = 40
	DefaultAPIBodyLimit     = "64K"
	DefaultAPISnapshotWait  = 3 * time.Second
)

// DefaultAppConfig 설정 파일과 환경 변수가 덮어쓰기 전의 기본 설정입니다.
// 엔드포인트 기본값은 리뷰 백엔드가 제공하는 세 가지 작업 계열의 경로입니다.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Backend: BackendConfig{
			BaseURL:        DefaultBackendBaseURL,
			RequestTimeout: DefaultBackendRequestTimeout,
			RateLimit:      DefaultBackendRateLimit,
			RateBurst:      DefaultBackendRateBurst,
			MaxBodyBytes:   DefaultBackendMaxBodyBytes,
			Endpoints:      DefaultEndpoints(),
		},
		Polling: PollingConfig{
			Interval:             DefaultPollingInterval,
			MaxInterval:          DefaultPollingMaxInterval,
			MaxTransientFailures: DefaultPollingMaxTransientFailures,
			CancelGrace:          DefaultPollingCancelGrace,
			CacheTTL:             DefaultPollingCacheTTL,
			TerminalRetention:    DefaultPollingTerminalRetention,
		},
		Scheduler: SchedulerConfig{
			Sync: SyncScheduleConfig{
				TimeSpec: DefaultSyncTimeSpec,
				Timeout:  DefaultSyncTimeout,
			},
		},
		Notifier: NotifierConfig{
			Telegram: TelegramConfig{
				QueueSize: DefaultTelegramQueueSize,
				RateLimit: DefaultTelegramRateLimit,
				RateBurst: DefaultTelegramRateBurst,
			},
		},
		API: APIConfig{
			Enabled:       true,
			ListenAddress: DefaultAPIListenAddress,
			CORS: CORSConfig{
				AllowOrigins: []string{"http://localhost:3000"},
			},
			RateLimit:    DefaultAPIRateLimit,
			RateBurst:    DefaultAPIRateBurst,
			BodyLimit:    DefaultAPIBodyLimit,
			SnapshotWait: DefaultAPISnapshotWait,
		},
	}
}

// DefaultEndpoints 리뷰 백엔드의 작업 종류별 엔드포인트 계열입니다.
func DefaultEndpoints() map[string]EndpointConfig {
	return map[string]EndpointConfig{
		"review": {
			Submit:        map[string]string{"default": "/reviews/merge-requests/{merge_request_id}/trigger"},
			Status:        "/reviews/tasks/{task_id}/status",
			Result:        "/reviews/tasks/{task_id}/result",
			Cancel:        "/reviews/tasks/{task_id}/cancel",
			CancelMethod:  "POST",
			ProgressScale: "fraction",
		},
		"sync": {
			Submit: map[string]string{
				"all":          "/sync/",
				"project":      "/sync/projects/{project_id}",
				"repositories": "/sync/repositories",
			},
			Status:        "/sync/tasks/{task_id}",
			CancelMethod:  "DELETE",
			Cancel:        "/sync/tasks/{task_id}",
			ProgressScale: "fraction",
		},
		"template_generation": {
			Submit:        map[string]string{"default": "/prompt-templates/ai-generate"},
			Status:        "/prompt-templates/ai-generate/{task_id}/status",
			Result:        "/prompt-templates/ai-generate/{task_id}/result",
			Cancel:        "/prompt-templates/ai-generate/{task_id}/cancel",
			CancelMethod:  "POST",
			ProgressScale: "fraction",
		},
	}
}
