package constants

// 클라이언트에 돌려주는 오류 메시지입니다.
const (
	ErrMsgInternalServer       = "내부 서버 오류가 발생했습니다"
	ErrMsgNotFound             = "요청한 리소스를 찾을 수 없습니다"
	ErrMsgTooManyRequests      = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요"
	ErrMsgUnsupportedMediaType = "Content-Type은 application/json이어야 합니다"
	ErrMsgInvalidBody          = "요청 본문을 해석할 수 없습니다"
	ErrMsgSnapshotNotReady     = "아직 작업 상태를 관찰하지 못했습니다. 잠시 후 다시 조회해주세요"
)

// 패닉 메시지
const (
	PanicMsgTaskServiceRequired = "TaskService는 필수입니다"
	PanicMsgRateLimitInvalid    = "RateLimiting: 초당 요청 수와 버스트는 양수여야 합니다 (rate=%v, burst=%d)"
)
