// Package notification 작업 종료 결과를 외부 메신저로 알리는 알림 서비스를 제공합니다.
package notification

import (
	"context"

	"github.com/darkkaiser/review-console/internal/service/contract"
)

// Message 외부 메신저로 보낼 알림 메시지입니다.
type Message struct {
	TaskID contract.TaskID
	Kind   contract.Kind
	Status contract.Status

	// Text HTML 서식(<b>, <i>, <code>)을 사용할 수 있는 본문입니다. 사용자 입력은 이미 이스케이프되어 있습니다.
	Text string

	// ErrorOccurred 작업이 실패했거나 백엔드와 연락이 끊긴 경우입니다.
	ErrorOccurred bool
}

// Sender 알림 메시지를 실제로 전송하는 채널입니다.
type Sender interface {
	Send(ctx context.Context, m Message) error
}
