package prompt

import (
	"encoding/json"
	"testing"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleIDs(handles []models.Handle) []string {
	ids := make([]string, 0, len(handles))
	for _, h := range handles {
		ids = append(ids, h.ID)
	}

	return ids
}

func TestTemplateFactory_DefaultData(t *testing.T) {
	f := NewTemplateFactory()

	node, err := f.Create("n1", models.Position{X: 10, Y: 20}, nil)
	require.NoError(t, err)

	assert.Equal(t, models.NodeTypePrompt, node.Type)
	assert.Equal(t, []string{"output", "input_user_query"}, handleIDs(node.Handles()))

	data, ok := node.Data.(*models.TemplateData)
	require.True(t, ok)
	assert.Equal(t, DefaultTemplate, data.Template)
}

func TestTemplateFactory_DerivesHandlesFromTemplate(t *testing.T) {
	f := NewTemplateFactory()

	data := &models.TemplateData{
		BaseData: models.BaseData{
			Name:     "Greeting",
			Handlers: []models.Handle{models.TargetHandle("stale", models.CompatibilityJSON)},
		},
		Template: "Hi {{user_query}}, {{tone}}! Ask @topic",
	}

	node, err := f.Create("n1", models.Position{}, data)
	require.NoError(t, err)

	assert.Equal(t, []string{"output", "input_tone", "input_topic", "input_user_query"}, handleIDs(node.Handles()))

	for _, h := range node.Handles()[1:] {
		assert.Equal(t, models.HandleTarget, h.Direction)
		assert.Equal(t, models.CompatibilityText, h.Compatibility)
	}

	assert.Len(t, data.Handlers, 1, "caller data must not be modified")
}

func TestTemplateFactory_DecodeData(t *testing.T) {
	f := NewTemplateFactory()

	decoded, err := f.DecodeData(json.RawMessage(`{"name":"T","template":"{{a}}","includeHistory":true,"handlers":[]}`))
	require.NoError(t, err)

	data, ok := decoded.(*models.TemplateData)
	require.True(t, ok)
	assert.True(t, data.IncludeHistory)
	assert.Equal(t, "{{a}}", data.Template)

	_, err = f.DecodeData(json.RawMessage(`{"template": 42}`))
	assert.Error(t, err)
}
