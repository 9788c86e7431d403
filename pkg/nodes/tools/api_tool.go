package tools

import (
	"encoding/json"
	"net/http"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/protocol"
	"github.com/genagent/agentflow/pkg/variables"
)

// APIToolFactory creates API tool nodes.
type APIToolFactory struct{}

// NewAPIToolFactory creates a new factory instance.
func NewAPIToolFactory() protocol.NodeType {
	return &APIToolFactory{}
}

func (f *APIToolFactory) ID() string {
	return models.NodeTypeAPITool
}

func (f *APIToolFactory) Label() string {
	return "API Tool"
}

func (f *APIToolFactory) Description() string {
	return "Make real-time API calls to external services"
}

func (f *APIToolFactory) Category() models.Category {
	return models.CategoryTools
}

func (f *APIToolFactory) Icon() string {
	return "Globe"
}

func (f *APIToolFactory) DefaultData() models.NodeData {
	data := &models.APIToolData{
		ToolData: models.ToolData{
			BaseData:     models.BaseData{Name: "API Tool"},
			Description:  "Makes API calls to external services",
			OutputSchema: APIOutputSchema(),
		},
		Endpoint:   "https://",
		Method:     http.MethodGet,
		Headers:    map[string]string{},
		Parameters: map[string]string{},
	}
	data.Handlers = toolHandles(&data.ToolData)

	return data
}

func (f *APIToolFactory) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.APIToolData](raw)
}

func (f *APIToolFactory) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.APIToolData](f.ID(), data, f.DefaultData)
	if err != nil {
		return nil, err
	}

	if d.Method == "" {
		d.Method = http.MethodGet
	}

	d.InputSchema = APIInputSchema(d)
	d.OutputSchema = APIOutputSchema()
	d.Handlers = models.MergeHandles(toolHandles(&d.ToolData), d.Handlers)

	return nodes.NewNode(f.ID(), id, position, d), nil
}

// APIInputSchema derives one required string field per variable referenced by
// the call configuration. It is nil when the call has no variables.
func APIInputSchema(d *models.APIToolData) models.NodeSchema {
	found := variables.Collect(d.Endpoint, d.Headers, d.Parameters, d.RequestBody)
	if len(found) == 0 {
		return nil
	}

	schema := make(models.NodeSchema, len(found))
	for name := range found {
		schema[name] = models.SchemaField{Type: models.SchemaTypeString, Required: true}
	}

	return schema
}

// APIOutputSchema is the shape of every API tool response.
func APIOutputSchema() models.NodeSchema {
	return models.NodeSchema{
		"status":  {Type: models.SchemaTypeNumber, Required: true},
		"data":    {Type: models.SchemaTypeAny, Required: true},
		"headers": {Type: models.SchemaTypeObject, Required: true},
	}
}
