package tools

import (
	"encoding/json"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
)

// PythonCodeFactory creates sandboxed Python code nodes. The input schema is
// edited by the user and kept as given.
type PythonCodeFactory struct{}

// NewPythonCodeFactory creates a new factory instance.
func NewPythonCodeFactory() protocol.NodeType {
	return &PythonCodeFactory{}
}

func (f *PythonCodeFactory) ID() string {
	return models.NodeTypePythonCode
}

func (f *PythonCodeFactory) Label() string {
	return "Python Code"
}

func (f *PythonCodeFactory) Description() string {
	return "Execute Python code in a sandboxed environment"
}

func (f *PythonCodeFactory) Category() models.Category {
	return models.CategoryTools
}

func (f *PythonCodeFactory) Icon() string {
	return "Code"
}

func (f *PythonCodeFactory) DefaultData() models.NodeData {
	data := &models.PythonCodeData{
		ToolData: models.ToolData{
			BaseData:    models.BaseData{Name: "Python Code"},
			Description: "Execute Python code in a sandboxed environment",
		},
	}
	data.Handlers = toolHandles(&data.ToolData)

	return data
}

func (f *PythonCodeFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.PythonCodeData](raw)
}

func (f *PythonCodeFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.PythonCodeData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	d.Handlers = models.MergeHandles(toolHandles(&d.ToolData), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}
