// Package chat provides the chat input, chat output and Slack message node types.
package chat

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
)

const (
	HandleOutput = "output"
	HandleInput  = "input"
)

// InputFactory creates chat input nodes.
type InputFactory struct{}

// NewInputFactory creates a new factory instance.
func NewInputFactory() protocol.NodeType {
	return &InputFactory{}
}

func (f *InputFactory) ID() string {
	return models.NodeTypeChatInput
}

func (f *InputFactory) Label() string {
	return "Chat Input"
}

func (f *InputFactory) Description() string {
	return "A node for handling chat messages and user inputs"
}

func (f *InputFactory) Category() models.Category {
	return models.CategoryInput
}

func (f *InputFactory) Icon() string {
	return "MessageCircle"
}

func (f *InputFactory) DefaultData() models.NodeData {
	return &models.ChatInputData{
		BaseData: models.BaseData{Name: "Chat Input", Handlers: inputHandles()},
	}
}

func (f *InputFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.ChatInputData](raw)
}

func (f *InputFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.ChatInputData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.Handlers = models.MergeHandles(inputHandles(), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

func inputHandles() []models.Handle {
	return []models.Handle{models.SourceHandle(HandleOutput, models.CompatibilityText)}
}

// OutputFactory creates chat output nodes.
type OutputFactory struct{}

// NewOutputFactory creates a new factory instance.
func NewOutputFactory() protocol.NodeType {
	return &OutputFactory{}
}

func (f *OutputFactory) ID() string {
	return models.NodeTypeChatOutput
}

func (f *OutputFactory) Label() string {
	return "Chat Output"
}

func (f *OutputFactory) Description() string {
	return "Display chat messages from the LLM"
}

func (f *OutputFactory) Category() models.Category {
	return models.CategoryOutput
}

func (f *OutputFactory) Icon() string {
	return "MessageSquare"
}

func (f *OutputFactory) DefaultData() models.NodeData {
	return &models.ChatOutputData{
		BaseData: models.BaseData{Name: "Chat Output", Handlers: outputHandles()},
	}
}

func (f *OutputFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.ChatOutputData](raw)
}

func (f *OutputFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.ChatOutputData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.Handlers = models.MergeHandles(outputHandles(), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

func outputHandles() []models.Handle {
	return []models.Handle{models.TargetHandle(HandleInput, models.CompatibilityText)}
}
