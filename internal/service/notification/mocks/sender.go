package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/darkkaiser/review-console/internal/service/notification"
)

// MockSender notification.Sender 인터페이스의 Mock 구현체입니다.
type MockSender struct {
	mock.Mock
}

var _ notification.Sender = (*MockSender)(nil)

func (m *MockSender) Send(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
