package constants

import "time"

// HTTP 서버 기본값입니다.
const (
	// DefaultReadHeaderTimeout 헤더를 아주 느리게 보내는 클라이언트(Slowloris)가 연결을 점유하지 못하게 합니다.
	DefaultReadHeaderTimeout = 10 * time.Second

	DefaultReadTimeout = 30 * time.Second
	DefaultIdleTimeout = 120 * time.Second

	// DefaultRequestTimeout 일반 요청의 최대 처리 시간입니다. SSE 스트림에는 적용하지 않습니다.
	DefaultRequestTimeout = 60 * time.Second

	// ShutdownTimeout Graceful Shutdown 시 최대 대기 시간
	ShutdownTimeout = 5 * time.Second

	// EventStreamKeepAlive SSE 연결 유지를 위해 주석 행을 보내는 간격입니다. 프록시의 유휴 연결 종료를 막습니다.
	EventStreamKeepAlive = 15 * time.Second

	// CancelWaitTimeout 취소 요청이 종료 관찰을 기다리는 최대 시간입니다.
	CancelWaitTimeout = 45 * time.Second
)

// HTTP 헤더 및 MIME 타입입니다.
const (
	HeaderRetryAfter = "Retry-After"

	MIMEEventStream = "text/event-stream"
)
