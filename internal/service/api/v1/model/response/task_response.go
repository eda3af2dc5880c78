package response

import "github.com/darkkaiser/review-console/internal/service/contract"

// CancelResponse 작업 취소 결과 응답
type CancelResponse struct {
	// Observation 취소 대기를 끝낸 종료 관찰
	Observation contract.Observation `json:"observation"`

	// Cancelled 작업이 취소 상태로 끝났는지 여부
	Cancelled bool `json:"cancelled"`

	// RaceLost 취소 요청이 도착하기 전에 작업이 성공 또는 실패로 끝났습니다.
	RaceLost bool `json:"race_lost"`

	// Forced 백엔드의 확인 없이 콘솔에서 취소로 확정했습니다.
	Forced bool `json:"forced"`
}
