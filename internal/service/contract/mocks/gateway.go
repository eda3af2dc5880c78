package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/darkkaiser/review-console/internal/service/contract"
)

// MockGateway contract.Gateway 인터페이스의 Mock 구현체입니다.
type MockGateway struct {
	mock.Mock
}

var _ contract.Gateway = (*MockGateway)(nil)

func (m *MockGateway) Submit(ctx context.Context, params contract.Params) (contract.TaskHandle, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(contract.TaskHandle), args.Error(1)
}

func (m *MockGateway) FetchSnapshot(ctx context.Context, handle contract.TaskHandle) (contract.Snapshot, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(contract.Snapshot), args.Error(1)
}

func (m *MockGateway) FetchResult(ctx context.Context, handle contract.TaskHandle, observed contract.Snapshot) (contract.TaskResult, error) {
	args := m.Called(ctx, handle, observed)
	return args.Get(0).(contract.TaskResult), args.Error(1)
}

func (m *MockGateway) RequestCancel(ctx context.Context, handle contract.TaskHandle) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}
