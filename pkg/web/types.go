// Package web provides the HTTP handlers of the workflow editor API.
package web

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/protocol"
)

// ConnectionRequest is a proposed edge.
type ConnectionRequest struct {
	Source       string `json:"source"       validate:"required"`
	SourceHandle string `json:"sourceHandle" validate:"required"`
	Target       string `json:"target"       validate:"required"`
	TargetHandle string `json:"targetHandle" validate:"required"`
}

// CheckConnectionRequest asks whether a connection may be added to a workflow.
type CheckConnectionRequest struct {
	Workflow   *document.Document `json:"workflow"   validate:"required"`
	Connection ConnectionRequest  `json:"connection"`
}

// CheckConnectionResponse is the checker's verdict plus anything that could
// not be loaded from the submitted workflow.
type CheckConnectionResponse struct {
	graph.Verdict

	SkippedNodes []document.SkippedItem `json:"skipped_nodes"`
	SkippedEdges []document.SkippedItem `json:"skipped_edges"`
}

// ExtractVariablesRequest carries either free text or the fields of an API
// tool. Text wins when both are present.
type ExtractVariablesRequest struct {
	Text       *string           `json:"text,omitempty"`
	Endpoint   string            `json:"endpoint,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Body       string            `json:"body,omitempty"`
}

type ExtractVariablesResponse struct {
	Variables []string `json:"variables"`
}

// TestToolRequest runs one tool with its node data and sample inputs.
type TestToolRequest struct {
	NodeConfig json.RawMessage `json:"node_config" validate:"required"`
	Inputs     map[string]any  `json:"inputs"`
}

type CodeTemplateRequest struct {
	InputSchema models.NodeSchema `json:"input_schema" validate:"required"`
}

type CodeTemplateResponse struct {
	Template string `json:"template"`
}

// NodeTypeResponse is one catalog entry.
type NodeTypeResponse struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	Icon        string          `json:"icon"`
	DefaultData models.NodeData `json:"default_data,omitempty"`
}

// NewNodeTypeResponse describes a node type. Default data is only included
// when withDefaults is set.
func NewNodeTypeResponse(nodeType protocol.NodeType, withDefaults bool) NodeTypeResponse {
	response := NodeTypeResponse{
		ID:          nodeType.ID(),
		Label:       nodeType.Label(),
		Description: nodeType.Description(),
		Category:    nodeType.Category(),
		Icon:        nodeType.Icon(),
	}

	if withDefaults {
		response.DefaultData = nodeType.DefaultData()
	}

	return response
}
