package tools

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
)

// KnowledgeBaseFactory creates knowledge base lookup nodes.
type KnowledgeBaseFactory struct{}

// NewKnowledgeBaseFactory creates a new factory instance.
func NewKnowledgeBaseFactory() protocol.NodeType {
	return &KnowledgeBaseFactory{}
}

func (f *KnowledgeBaseFactory) ID() string {
	return models.NodeTypeKnowledgeBase
}

func (f *KnowledgeBaseFactory) Label() string {
	return "Knowledge Base"
}

func (f *KnowledgeBaseFactory) Description() string {
	return "Query multiple knowledge bases for information"
}

func (f *KnowledgeBaseFactory) Category() models.Category {
	return models.CategoryTools
}

func (f *KnowledgeBaseFactory) Icon() string {
	return "Database"
}

func (f *KnowledgeBaseFactory) DefaultData() models.NodeData {
	data := &models.KnowledgeBaseData{
		ToolData: models.ToolData{
			BaseData:     models.BaseData{Name: "Knowledge Base"},
			Description:  "Query multiple knowledge bases",
			InputSchema:  knowledgeInputSchema(),
			OutputSchema: knowledgeOutputSchema(),
		},
		SelectedBases: []string{},
	}
	data.Handlers = toolHandles(&data.ToolData)

	return data
}

func (f *KnowledgeBaseFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.KnowledgeBaseData](raw)
}

func (f *KnowledgeBaseFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.KnowledgeBaseData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.InputSchema = knowledgeInputSchema()
	d.OutputSchema = knowledgeOutputSchema()
	d.Handlers = models.MergeHandles(toolHandles(&d.ToolData), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

func knowledgeInputSchema() models.NodeSchema {
	return models.NodeSchema{
		"query": models.NewSchemaField(models.SchemaTypeString, "Query to search in knowledge bases", true),
	}
}

func knowledgeOutputSchema() models.NodeSchema {
	return models.NodeSchema{
		"output": models.NewSchemaField(models.SchemaTypeString, "Search results from knowledge bases", false),
	}
}
