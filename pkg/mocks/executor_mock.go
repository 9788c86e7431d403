package mocks

import (
	"context"

	"github.com/genagent/agentflow/pkg/tools"
	"github.com/stretchr/testify/mock"
)

// MockExecutor is a mock implementation of tools.Executor.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, req tools.Request) (*tools.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*tools.Result), args.Error(1)
}
