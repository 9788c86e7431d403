// Package backend is how an editor session reaches workflow storage and tool
// runners, either in-process or over the REST API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/genagent/agentflow/pkg/tools"
)

// Backend is the editor's view of the server.
type Backend interface {
	ListWorkflows(ctx context.Context, req services.ListWorkflowsRequest) (*services.ListWorkflowsResponse, error)
	GetWorkflow(ctx context.Context, id string) (*document.Document, error)
	CreateWorkflow(ctx context.Context, doc *document.Document) (*document.Document, error)
	UpdateWorkflow(ctx context.Context, id string, doc *document.Document) (*document.Document, error)
	DeleteWorkflow(ctx context.Context, id string) error
	TestNode(ctx context.Context, kind string, config json.RawMessage, inputs map[string]any) (*tools.Result, error)
	GenerateCodeTemplate(ctx context.Context, inputSchema models.NodeSchema) (string, error)
}

var (
	ErrRejected    = errors.New("request rejected")
	ErrServerError = errors.New("server error")
)

// TransportError is a failed call to the server: the request never
// completed, or it came back with a non-2xx status.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Detail     string
	Errors     []string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %v: %s", e.Op, e.StatusCode, e.Err, e.Detail)
	}

	return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError checks if err came from talking to the server.
func IsTransportError(err error) bool {
	var transportErr *TransportError

	return errors.As(err, &transportErr)
}
