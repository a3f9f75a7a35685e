package fund

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBridger is a mock implementation of Bridger for testing.
type MockBridger struct {
	mock.Mock
}

func (m *MockBridger) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBridger) Initialized() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockBridger) GetUnifiedBalances(ctx context.Context, address string) ([]UnifiedBalance, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]UnifiedBalance), args.Error(1)
}

func (m *MockBridger) BridgeAndExecute(ctx context.Context, req BridgeRequest) (*BridgeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BridgeResult), args.Error(1)
}
