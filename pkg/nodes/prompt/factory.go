// Package prompt provides the prompt template node type. A template node has
// one text input handle per variable referenced by its template text.
package prompt

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
	"github.com/genagent/agentflow/pkg/variables"
)

const (
	HandleOutput      = "output"
	InputHandlePrefix = "input_"

	DefaultTemplate = "You are my assistent! Please answer the following question: {{user_query}}"
)

// TemplateFactory creates prompt template nodes.
type TemplateFactory struct{}

// NewTemplateFactory creates a new factory instance.
func NewTemplateFactory() protocol.NodeType {
	return &TemplateFactory{}
}

func (f *TemplateFactory) ID() string {
	return models.NodeTypePrompt
}

func (f *TemplateFactory) Label() string {
	return "Prompt Template"
}

func (f *TemplateFactory) Description() string {
	return "Create dynamic prompt templates with placeholders"
}

func (f *TemplateFactory) Category() models.Category {
	return models.CategoryProcess
}

func (f *TemplateFactory) Icon() string {
	return "FileText"
}

func (f *TemplateFactory) DefaultData() models.NodeData {
	data := &models.TemplateData{
		BaseData: models.BaseData{Name: "Prompt Template"},
		Template: DefaultTemplate,
	}
	data.Handlers = TemplateHandles(data.Template)

	return data
}

func (f *TemplateFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.TemplateData](raw)
}

func (f *TemplateFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.TemplateData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.Handlers = TemplateHandles(d.Template)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

// TemplateHandles returns the output handle followed by one input handle per
// template variable, in lexical order.
func TemplateHandles(template string) []models.Handle {
	names := variables.Extract(template).Sorted()

	handles := make([]models.Handle, 0, len(names)+1)
	handles = append(handles, models.SourceHandle(HandleOutput, models.CompatibilityText))

	for _, name := range names {
		handles = append(handles, models.TargetHandle(InputHandlePrefix+name, models.CompatibilityText))
	}

	return handles
}
