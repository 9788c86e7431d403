package editor_test

import (
	"context"
	"encoding/json"

	"github.com/genagent/agentflow/pkg/backend"
	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/genagent/agentflow/pkg/tools"
	"github.com/stretchr/testify/mock"
)

// mockBackend is a testify mock of backend.Backend. Save methods also accept
// a func returning the stored document in place of a fixed value.
type mockBackend struct {
	mock.Mock
}

var _ backend.Backend = (*mockBackend)(nil)

type saveFunc func(doc *document.Document) *document.Document

func (m *mockBackend) ListWorkflows(ctx context.Context, req services.ListWorkflowsRequest) (*services.ListWorkflowsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*services.ListWorkflowsResponse), args.Error(1)
}

func (m *mockBackend) GetWorkflow(ctx context.Context, id string) (*document.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *mockBackend) CreateWorkflow(ctx context.Context, doc *document.Document) (*document.Document, error) {
	args := m.Called(ctx, doc)

	return savedDocument(args, doc)
}

func (m *mockBackend) UpdateWorkflow(ctx context.Context, id string, doc *document.Document) (*document.Document, error) {
	args := m.Called(ctx, id, doc)

	return savedDocument(args, doc)
}

func (m *mockBackend) DeleteWorkflow(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBackend) TestNode(ctx context.Context, kind string, config json.RawMessage, inputs map[string]any) (*tools.Result, error) {
	args := m.Called(ctx, kind, config, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*tools.Result), args.Error(1)
}

func (m *mockBackend) GenerateCodeTemplate(ctx context.Context, inputSchema models.NodeSchema) (string, error) {
	args := m.Called(ctx, inputSchema)

	return args.String(0), args.Error(1)
}

func savedDocument(args mock.Arguments, doc *document.Document) (*document.Document, error) {
	switch v := args.Get(0).(type) {
	case nil:
		return nil, args.Error(1)
	case saveFunc:
		return v(doc), args.Error(1)
	default:
		return v.(*document.Document), args.Error(1)
	}
}
