// Package mocks provides testify mocks for the persistence, event bus, tool
// executor and backend interfaces.
package mocks

import (
	"context"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.WorkflowListResult), args.Error(1)
}

func (m *MockPersistence) WorkflowByID(ctx context.Context, id string) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockPersistence) SaveWorkflow(ctx context.Context, doc *document.Document) error {
	args := m.Called(ctx, doc)

	return args.Error(0)
}

func (m *MockPersistence) DeleteWorkflow(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
