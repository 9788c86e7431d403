package registry

import (
	"github.com/genagent/agentflow/pkg/nodes/chat"
	"github.com/genagent/agentflow/pkg/nodes/llm"
	"github.com/genagent/agentflow/pkg/nodes/prompt"
	"github.com/genagent/agentflow/pkg/nodes/tools"
	"github.com/genagent/agentflow/pkg/nodes/zendesk"
	"github.com/genagent/agentflow/pkg/protocol"
)

// DefaultNodeTypes returns the built-in catalog in display order.
func DefaultNodeTypes() []protocol.NodeType {
	return []protocol.NodeType{
		chat.NewInputFactory(),
		llm.NewModelFactory(),
		prompt.NewTemplateFactory(),
		chat.NewOutputFactory(),
		chat.NewSlackFactory(),
		zendesk.NewTicketFactory(),
		tools.NewAPIToolFactory(),
		llm.NewAgentFactory(),
		tools.NewKnowledgeBaseFactory(),
		tools.NewPythonCodeFactory(),
	}
}

// RegisterDefaultNodes clears the catalog and registers the built-in node
// types. Calling it again yields the same catalog.
func (r *Registry) RegisterDefaultNodes() {
	r.Clear()

	for _, nodeType := range DefaultNodeTypes() {
		r.Register(nodeType)
	}

	r.logger.Debug("Registered default node types", "count", r.Len())
}
