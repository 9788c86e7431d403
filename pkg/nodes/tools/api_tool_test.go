package tools

import (
	"testing"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIToolFactory_DerivesInputSchema(t *testing.T) {
	f := NewAPIToolFactory()

	data := &models.APIToolData{
		ToolData:    models.ToolData{BaseData: models.BaseData{Name: "Weather"}},
		Endpoint:    "https://api.example.com/weather/{{city}}",
		Headers:     map[string]string{"Authorization": "Bearer @token"},
		Parameters:  map[string]string{"units": "metric"},
		RequestBody: "",
	}

	node, err := f.Create("api", models.Position{}, data)
	require.NoError(t, err)

	got, ok := node.Data.(*models.APIToolData)
	require.True(t, ok)

	assert.Equal(t, "GET", got.Method)
	assert.Equal(t, []string{"city", "token"}, got.InputSchema.RequiredFields())
	assert.Equal(t, models.SchemaTypeString, got.InputSchema["city"].Type)
	assert.Equal(t, APIOutputSchema(), got.OutputSchema)

	input, ok := node.Handle(HandleInput)
	require.True(t, ok)
	assert.Equal(t, got.InputSchema, input.Schema)

	output, ok := node.Handle(HandleOutput)
	require.True(t, ok)
	assert.Equal(t, models.CompatibilityJSON, output.Compatibility)
	assert.Equal(t, APIOutputSchema(), output.Schema)
}

func TestToolFactories_KeepRequiredHandles(t *testing.T) {
	overrides := []models.Handle{
		models.TargetHandle(HandleInput, models.CompatibilityText),
		models.TargetHandle("extra", models.CompatibilityAny),
	}

	cases := map[string]models.NodeData{
		models.NodeTypeAPITool:       &models.APIToolData{ToolData: models.ToolData{BaseData: models.BaseData{Handlers: overrides}}},
		models.NodeTypeKnowledgeBase: &models.KnowledgeBaseData{ToolData: models.ToolData{BaseData: models.BaseData{Handlers: overrides}}},
		models.NodeTypePythonCode:    &models.PythonCodeData{ToolData: models.ToolData{BaseData: models.BaseData{Handlers: overrides}}},
	}

	factories := []interface {
		ID() string
		Create(string, models.Position, models.NodeData) (*models.Node, error)
	}{NewAPIToolFactory(), NewKnowledgeBaseFactory(), NewPythonCodeFactory()}

	for _, f := range factories {
		t.Run(f.ID(), func(t *testing.T) {
			node, err := f.Create("tool", models.Position{}, cases[f.ID()])
			require.NoError(t, err)

			input, ok := node.Handle(HandleInput)
			require.True(t, ok)
			assert.Equal(t, models.CompatibilityJSON, input.Compatibility)

			_, ok = node.Handle(HandleOutputReference)
			assert.True(t, ok)

			_, ok = node.Handle("extra")
			assert.True(t, ok)
		})
	}
}

func TestKnowledgeBaseFactory_FixedSchemas(t *testing.T) {
	node, err := NewKnowledgeBaseFactory().Create("kb", models.Position{}, nil)
	require.NoError(t, err)

	data, ok := node.Data.(*models.KnowledgeBaseData)
	require.True(t, ok)
	assert.Equal(t, []string{"query"}, data.InputSchema.RequiredFields())
	assert.Contains(t, data.OutputSchema, "output")
	assert.Equal(t, []string{}, data.SelectedBases)
}
