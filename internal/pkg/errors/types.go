package errors

import "strconv"

// ErrorType 에러를 분류하는 종류입니다. 로깅 레벨과 API 응답 상태 코드 결정에 사용됩니다.
type ErrorType int

const (
	Unknown ErrorType = iota

	// Internal 프로그래밍 오류 등 내부 불변식이 깨진 경우
	Internal

	// System 파일, 네트워크 소켓 등 시스템 자원 관련 실패
	System

	Unauthorized
	Forbidden

	// InvalidInput 호출자가 전달한 값이 올바르지 않은 경우
	InvalidInput

	// Conflict 현재 상태와 충돌하여 요청을 수행할 수 없는 경우 (예: 동일 대상에 이미 실행 중인 작업)
	Conflict

	NotFound

	ExecutionFailed

	// ParsingFailed 외부 응답의 형식을 해석하지 못한 경우
	ParsingFailed

	Timeout

	// Unavailable 외부 서비스에 일시적으로 접근할 수 없는 경우
	Unavailable
)

var errorTypeNames = [...]string{
	Unknown:         "Unknown",
	Internal:        "Internal",
	System:          "System",
	Unauthorized:    "Unauthorized",
	Forbidden:       "Forbidden",
	InvalidInput:    "InvalidInput",
	Conflict:        "Conflict",
	NotFound:        "NotFound",
	ExecutionFailed: "ExecutionFailed",
	ParsingFailed:   "ParsingFailed",
	Timeout:         "Timeout",
	Unavailable:     "Unavailable",
}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "ErrorType(" + strconv.Itoa(int(t)) + ")"
	}
	return errorTypeNames[t]
}
