// Package zendesk provides the Zendesk ticket node type.
package zendesk

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
)

const HandleInput = "input"

// TicketFactory creates Zendesk ticket nodes.
type TicketFactory struct{}

// NewTicketFactory creates a new factory instance.
func NewTicketFactory() protocol.NodeType {
	return &TicketFactory{}
}

func (f *TicketFactory) ID() string {
	return models.NodeTypeZendeskTicket
}

func (f *TicketFactory) Label() string {
	return "Zendesk Ticket"
}

func (f *TicketFactory) Description() string {
	return "Create a new Zendesk ticket via API"
}

func (f *TicketFactory) Category() models.Category {
	return models.CategoryTools
}

func (f *TicketFactory) Icon() string {
	return "Tag"
}

func (f *TicketFactory) DefaultData() models.NodeData {
	return &models.ZendeskTicketData{
		BaseData: models.BaseData{Name: "Zendesk Ticket", Handlers: requiredHandles()},
		Tags:     []string{},
	}
}

func (f *TicketFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.ZendeskTicketData](raw)
}

func (f *TicketFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.ZendeskTicketData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.Handlers = models.MergeHandles(requiredHandles(), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

func requiredHandles() []models.Handle {
	return []models.Handle{models.TargetHandle(HandleInput, models.CompatibilityText)}
}
