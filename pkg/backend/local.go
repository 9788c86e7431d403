package backend

import (
	"context"
	"encoding/json"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/genagent/agentflow/pkg/tools"
)

// Local calls the services directly, without a network hop.
type Local struct {
	workflows *services.Workflow
	tester    *services.NodeTester
	templates *services.CodeTemplates
}

func NewLocal(workflows *services.Workflow, tester *services.NodeTester, templates *services.CodeTemplates) *Local {
	if templates == nil {
		templates = services.NewCodeTemplates()
	}

	return &Local{
		workflows: workflows,
		tester:    tester,
		templates: templates,
	}
}

func (l *Local) ListWorkflows(ctx context.Context, req services.ListWorkflowsRequest) (*services.ListWorkflowsResponse, error) {
	return l.workflows.ListWorkflows(ctx, req)
}

func (l *Local) GetWorkflow(ctx context.Context, id string) (*document.Document, error) {
	return l.workflows.FetchByID(ctx, id)
}

func (l *Local) CreateWorkflow(ctx context.Context, doc *document.Document) (*document.Document, error) {
	return l.workflows.Create(ctx, doc)
}

func (l *Local) UpdateWorkflow(ctx context.Context, id string, doc *document.Document) (*document.Document, error) {
	return l.workflows.Update(ctx, id, doc)
}

func (l *Local) DeleteWorkflow(ctx context.Context, id string) error {
	return l.workflows.Delete(ctx, id)
}

func (l *Local) TestNode(ctx context.Context, kind string, config json.RawMessage, inputs map[string]any) (*tools.Result, error) {
	if l.tester == nil {
		return nil, tools.ErrExecutorNotConfigured
	}

	return l.tester.Test(ctx, kind, config, inputs)
}

func (l *Local) GenerateCodeTemplate(_ context.Context, inputSchema models.NodeSchema) (string, error) {
	return l.templates.Generate(inputSchema)
}
