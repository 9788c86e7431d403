package chat

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
)

// SlackFactory creates Slack message output nodes.
type SlackFactory struct{}

// NewSlackFactory creates a new factory instance.
func NewSlackFactory() protocol.NodeType {
	return &SlackFactory{}
}

func (f *SlackFactory) ID() string {
	return models.NodeTypeSlackMessage
}

func (f *SlackFactory) Label() string {
	return "Slack Message"
}

func (f *SlackFactory) Description() string {
	return "Send a message to a Slack user or channel"
}

func (f *SlackFactory) Category() models.Category {
	return models.CategoryOutput
}

func (f *SlackFactory) Icon() string {
	return "Slack"
}

func (f *SlackFactory) DefaultData() models.NodeData {
	return &models.SlackOutputData{
		BaseData: models.BaseData{Name: "Slack Message", Handlers: outputHandles()},
	}
}

func (f *SlackFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.SlackOutputData](raw)
}

func (f *SlackFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.SlackOutputData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.Handlers = models.MergeHandles(outputHandles(), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}
