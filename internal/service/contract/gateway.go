package contract

import "context"

// Gateway 세 가지 백엔드 엔드포인트 계열을 제출, 상태 조회, 결과 조회, 취소라는 하나의 계약으로 감쌉니다.
//
// 구현체는 상태를 갖지 않아야 하며 여러 고루틴에서 동시에 호출될 수 있습니다.
type Gateway interface {
	// Submit 작업을 제출하고 새 작업 핸들을 반환합니다.
	// 백엔드가 작업 생성을 거부하면(동일 대상에 진행 중인 작업이 있는 경우 등) ErrSubmissionRejected를 감싼 에러를 반환합니다.
	Submit(ctx context.Context, params Params) (TaskHandle, error)

	// FetchSnapshot 현재 상태를 조회합니다. 백엔드에 기록이 없으면 ErrTaskNotFound를 감싼 에러를 반환하며,
	// 그 밖의 에러는 모두 일시적인 실패로 취급됩니다.
	FetchSnapshot(ctx context.Context, handle TaskHandle) (Snapshot, error)

	// FetchResult 결과를 조회합니다. observed는 호출자가 관찰한 스냅샷이며 Succeeded가 아니면 ErrInvalidState입니다.
	FetchResult(ctx context.Context, handle TaskHandle, observed Snapshot) (TaskResult, error)

	// RequestCancel 백엔드에 취소를 요청합니다. 이미 종료된 작업이면 아무 일도 하지 않고 nil을 반환합니다.
	RequestCancel(ctx context.Context, handle TaskHandle) error
}
