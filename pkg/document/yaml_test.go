package document

import (
	"testing"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML(t *testing.T) {
	body := `
name: From YAML
description: hand written
version: "1.0"
nodes:
  - id: a
    type: chatInputNode
    position: {x: 10, y: 20}
    data:
      name: In
edges: []
`

	doc, err := ParseYAML([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "From YAML", doc.Name)
	assert.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, models.Position{X: 10, Y: 20}, doc.Nodes[0].Position)
	assert.JSONEq(t, `{"name": "In"}`, string(doc.Nodes[0].Data))
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"not yaml", "name: [unclosed", ErrMalformedYAML},
		{"non string keys", "{1: one}", ErrMalformedYAML},
		{"missing edges", "name: x\nnodes: []\n", ErrInvalidStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseYAML([]byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)

	doc, err := Serialize(buildGraph(t, reg))
	require.NoError(t, err)

	body, err := EncodeYAML(doc)
	require.NoError(t, err)

	parsed, err := ParseYAML(body)
	require.NoError(t, err)

	assert.False(t, Diff(doc, parsed), Changes(doc, parsed))
	assert.Equal(t, doc.ID, parsed.ID)
	assert.True(t, doc.CreatedAt.Equal(*parsed.CreatedAt))
}
