// Package llm provides the LLM model and agent node types.
package llm

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
)

const (
	HandleInput             = "input"
	HandleOutput            = "output"
	HandleInputSystemPrompt = "input_system_prompt"
	HandleInputPrompt       = "input_prompt"
	HandleInputTools        = "input_tools"

	DefaultProvider = "openai"
)

// ModelFactory creates LLM model configuration nodes.
type ModelFactory struct{}

// NewModelFactory creates a new factory instance.
func NewModelFactory() protocol.NodeType {
	return &ModelFactory{}
}

func (f *ModelFactory) ID() string {
	return models.NodeTypeLLMModel
}

func (f *ModelFactory) Label() string {
	return "LLM Model"
}

func (f *ModelFactory) Description() string {
	return "Configure an LLM model provider and settings"
}

func (f *ModelFactory) Category() models.Category {
	return models.CategoryProcess
}

func (f *ModelFactory) Icon() string {
	return "Brain"
}

func (f *ModelFactory) DefaultData() models.NodeData {
	return &models.LLMModelData{
		BaseData:   models.BaseData{Name: "LLM Model", Handlers: modelHandles()},
		ProviderID: DefaultProvider,
	}
}

func (f *ModelFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.LLMModelData](raw)
}

func (f *ModelFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.LLMModelData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.Handlers = models.MergeHandles(modelHandles(), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

func modelHandles() []models.Handle {
	return []models.Handle{
		models.TargetHandle(HandleInput, models.CompatibilityText),
		models.SourceHandle(HandleOutput, models.CompatibilityText),
	}
}
