package llm

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
)

// AgentFactory creates agent nodes. Agent handles are derived from the
// configured output mode on every Create, so caller supplied handles are
// replaced.
type AgentFactory struct{}

// NewAgentFactory creates a new factory instance.
func NewAgentFactory() protocol.NodeType {
	return &AgentFactory{}
}

func (f *AgentFactory) ID() string {
	return models.NodeTypeAgent
}

func (f *AgentFactory) Label() string {
	return "Agent"
}

func (f *AgentFactory) Description() string {
	return "An agent that can use tools to process inputs"
}

func (f *AgentFactory) Category() models.Category {
	return models.CategoryProcess
}

func (f *AgentFactory) Icon() string {
	return "Brain"
}

func (f *AgentFactory) DefaultData() models.NodeData {
	data := &models.AgentData{
		BaseData:     models.BaseData{Name: "Agent"},
		ProviderID:   DefaultProvider,
		OutputFormat: models.OutputFormatString,
	}
	data.Handlers = AgentHandles(data)

	return data
}

func (f *AgentFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.AgentData](raw)
}

func (f *AgentFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.AgentData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	if d.ProviderID == "" {
		d.ProviderID = DefaultProvider
	}

	d.Handlers = AgentHandles(d)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

// AgentHandles returns the handles of an agent with the given configuration.
func AgentHandles(d *models.AgentData) []models.Handle {
	output := models.CompatibilityText
	if d.EmitsJSON() {
		output = models.CompatibilityJSON
	}

	return []models.Handle{
		models.TargetHandle(HandleInputSystemPrompt, models.CompatibilityText),
		models.TargetHandle(HandleInputPrompt, models.CompatibilityText),
		models.TargetHandle(HandleInputTools, models.CompatibilityTools),
		models.SourceHandle(HandleOutput, output),
	}
}
