package graph

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/nodes"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matrixNodeType has one source and one target handle per compatibility tag.
type matrixNodeType struct{}

func (m *matrixNodeType) ID() string                { return "matrixNode" }
func (m *matrixNodeType) Label() string             { return "Matrix" }
func (m *matrixNodeType) Description() string       { return "one handle per tag" }
func (m *matrixNodeType) Category() models.Category { return models.CategoryProcess }
func (m *matrixNodeType) Icon() string              { return "Grid" }

func (m *matrixNodeType) DefaultData() models.NodeData {
	return &models.ChatInputData{BaseData: models.BaseData{Name: "Matrix"}}
}

func (m *matrixNodeType) DecodeData(raw json.RawMessage) (models.NodeData, error) {
	return nodes.Decode[models.ChatInputData](raw)
}

func (m *matrixNodeType) Create(id string, position models.Position, data models.NodeData) (*models.Node, error) {
	d, err := nodes.Prepare[models.ChatInputData](m.ID(), data, m.DefaultData)
	if err != nil {
		return nil, err
	}

	handles := make([]models.Handle, 0, 2*len(models.Compatibilities))
	for _, c := range models.Compatibilities {
		handles = append(handles,
			models.SourceHandle("out_"+string(c), c),
			models.TargetHandle("in_"+string(c), c),
		)
	}

	d.Handlers = handles

	return nodes.NewNode(m.ID(), id, position, d), nil
}

func newTestCatalog(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.NewRegistry(slog.Default())
	r.RegisterDefaultNodes()
	r.Register(&matrixNodeType{})

	return r
}

func sequentialIDs() func() string {
	n := 0

	return func() string {
		n++

		return fmt.Sprintf("node-%d", n)
	}
}

func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()

	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)

	return New(newTestCatalog(t), opts...)
}

func addNode(t *testing.T, g *Graph, typeID string) *models.Node {
	t.Helper()

	node, err := g.AddNode(typeID, models.Position{X: 10, Y: 20})
	require.NoError(t, err)

	return node
}

func ref(node *models.Node, handle string) models.HandleRef {
	return handleRef(node.ID, handle)
}

func handleRef(nodeID, handle string) models.HandleRef {
	return models.HandleRef{NodeID: nodeID, HandleID: handle}
}

func TestGraph_New(t *testing.T) {
	g := New(newTestCatalog(t))

	assert.Empty(t, g.ID)
	assert.Equal(t, DefaultVersion, g.Version)
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())
	assert.Equal(t, SchemaModePermissive, g.Checker().Mode())

	node := addNode(t, g, models.NodeTypeChatInput)
	assert.Len(t, node.ID, 36)
}

func TestGraph_AddNodeUnknownType(t *testing.T) {
	g := newTestGraph(t)
	addNode(t, g, models.NodeTypeChatInput)

	_, err := g.AddNode("doesNotExist", models.Position{})
	require.Error(t, err)
	assert.True(t, registry.IsUnknownNodeType(err))
	assert.Len(t, g.Nodes(), 1)
}

func TestGraph_ChatInputToChatOutput(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	output := addNode(t, g, models.NodeTypeChatOutput)
	agent := addNode(t, g, models.NodeTypeAgent)

	edge, verdict := g.AddEdge(ref(input, "output"), ref(output, "input"))
	require.True(t, verdict.Accepted, verdict.Reason)
	assert.Equal(t, "edge-node-1:output-node-2:input", edge.ID)
	require.Len(t, g.Edges(), 1)

	before := g.Edges()

	_, verdict = g.AddEdge(ref(input, "output"), ref(agent, "input_tools"))
	assert.False(t, verdict.Accepted)
	assert.ErrorIs(t, verdict.Err(), ErrIncompatibleHandles)
	assert.True(t, IsConnectionRejected(verdict.Err()))
	assert.Contains(t, verdict.Reason, "text -> tools")
	assert.Equal(t, before, g.Edges())
}

func TestGraph_AddEdgeRejections(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	output := addNode(t, g, models.NodeTypeChatOutput)

	_, verdict := g.AddEdge(ref(input, "output"), ref(output, "input"))
	require.True(t, verdict.Accepted)

	tests := []struct {
		name   string
		source models.HandleRef
		target models.HandleRef
		want   error
	}{
		{"missing source node", handleRef("ghost", "output"), ref(output, "input"), ErrSourceNodeNotFound},
		{"missing target node", ref(input, "output"), handleRef("ghost", "input"), ErrTargetNodeNotFound},
		{"missing source handle", ref(input, "nope"), ref(output, "input"), ErrSourceHandleNotFound},
		{"missing target handle", ref(input, "output"), ref(output, "nope"), ErrTargetHandleNotFound},
		{"target used as source", ref(output, "input"), ref(output, "input"), ErrInvalidHandleDirection},
		{"source used as target", ref(input, "output"), ref(input, "output"), ErrInvalidHandleDirection},
		{"duplicate", ref(input, "output"), ref(output, "input"), ErrDuplicateEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, verdict := g.AddEdge(tt.source, tt.target)
			assert.False(t, verdict.Accepted)
			assert.ErrorIs(t, verdict.Err(), tt.want)
			assert.NotEmpty(t, verdict.Reason)
			assert.Len(t, g.Edges(), 1)
		})
	}
}

func TestGraph_CompatibilityMatrix(t *testing.T) {
	g := newTestGraph(t)

	a := addNode(t, g, "matrixNode")
	b := addNode(t, g, "matrixNode")

	accepted := 0

	for _, source := range models.Compatibilities {
		for _, target := range models.Compatibilities {
			verdict := g.CanConnect(ref(a, "out_"+string(source)), ref(b, "in_"+string(target)))

			want := source == target || source == models.CompatibilityAny || target == models.CompatibilityAny
			assert.Equal(t, want, verdict.Accepted, "%s -> %s", source, target)

			if verdict.Accepted {
				accepted++
			} else {
				assert.ErrorIs(t, verdict.Err(), ErrIncompatibleHandles)
			}
		}
	}

	assert.Equal(t, 13, accepted)
	assert.Empty(t, g.Edges())
}

func TestGraph_RemoveNodeCascades(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	prompt := addNode(t, g, models.NodeTypePrompt)
	model := addNode(t, g, models.NodeTypeLLMModel)
	output := addNode(t, g, models.NodeTypeChatOutput)

	for _, pair := range [][2]models.HandleRef{
		{ref(input, "output"), ref(prompt, "input_user_query")},
		{ref(prompt, "output"), ref(model, "input")},
		{ref(model, "output"), ref(output, "input")},
	} {
		_, verdict := g.AddEdge(pair[0], pair[1])
		require.True(t, verdict.Accepted, verdict.Reason)
	}

	removed, err := g.RemoveNode(prompt.ID)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	for _, edge := range g.Edges() {
		assert.False(t, edge.References(prompt.ID))
	}

	assert.Len(t, g.Edges(), 1)
	require.NoError(t, g.Validate())

	_, err = g.RemoveNode(prompt.ID)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestGraph_UpdateTemplateKeepsExistingHandles(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	prompt := addNode(t, g, models.NodeTypePrompt)

	_, err := g.UpdateNodeData(prompt.ID, map[string]any{"template": "Hi {{user_query}}!"})
	require.NoError(t, err)

	_, verdict := g.AddEdge(ref(input, "output"), handleRef(prompt.ID, "input_user_query"))
	require.True(t, verdict.Accepted, verdict.Reason)

	pruned, err := g.UpdateNodeData(prompt.ID, map[string]any{"template": "Hi {{user_query}}, {{tone}}!"})
	require.NoError(t, err)
	assert.Empty(t, pruned)

	updated, ok := g.Node(prompt.ID)
	require.True(t, ok)

	_, ok = updated.Handle("input_tone")
	assert.True(t, ok)

	_, ok = updated.Handle("input_user_query")
	assert.True(t, ok)

	data, ok := updated.Data.(*models.TemplateData)
	require.True(t, ok)
	assert.Equal(t, "Prompt Template", data.Name)
	assert.Equal(t, "Hi {{user_query}}, {{tone}}!", data.Template)

	require.Len(t, g.Edges(), 1)
	assert.Equal(t, "input_user_query", g.Edges()[0].TargetHandle)

	pruned, err = g.UpdateNodeData(prompt.ID, map[string]any{"template": "Hi {{tone}}!"})
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	assert.Equal(t, "input_user_query", pruned[0].TargetHandle)
	assert.Empty(t, g.Edges())
	require.NoError(t, g.Validate())
}

func TestGraph_UpdateAgentOutputFormat(t *testing.T) {
	g := newTestGraph(t)

	agent := addNode(t, g, models.NodeTypeAgent)

	out, ok := agent.Handle("output")
	require.True(t, ok)
	assert.Equal(t, models.CompatibilityText, out.Compatibility)

	_, err := g.UpdateNodeData(agent.ID, map[string]any{"outputFormat": "json"})
	require.NoError(t, err)

	updated, _ := g.Node(agent.ID)
	out, ok = updated.Handle("output")
	require.True(t, ok)
	assert.Equal(t, models.CompatibilityJSON, out.Compatibility)
}

func TestGraph_UpdateAgentOutputFormatPrunesIncompatibleEdge(t *testing.T) {
	g := newTestGraph(t)

	agent := addNode(t, g, models.NodeTypeAgent)
	output := addNode(t, g, models.NodeTypeChatOutput)

	edge, verdict := g.AddEdge(ref(agent, "output"), ref(output, "input"))
	require.True(t, verdict.Accepted, verdict.Reason)

	pruned, err := g.UpdateNodeData(agent.ID, map[string]any{"outputFormat": models.OutputFormatJSON})
	require.NoError(t, err)

	assert.Equal(t, []models.Edge{edge}, pruned)
	assert.Empty(t, g.Edges())
	require.NoError(t, g.Validate())

	_, err = g.UpdateNodeData(agent.ID, map[string]any{"outputFormat": models.OutputFormatString})
	require.NoError(t, err)

	_, verdict = g.AddEdge(ref(agent, "output"), ref(output, "input"))
	assert.True(t, verdict.Accepted, verdict.Reason)
}

func TestGraph_UpdateNodeDataPrunesSchemaMismatchInStrictMode(t *testing.T) {
	g := newTestGraph(t, WithChecker(NewChecker(SchemaModeStrict)))

	api := addNode(t, g, models.NodeTypeAPITool)
	python := addNode(t, g, models.NodeTypePythonCode)

	_, verdict := g.AddEdge(ref(api, "output"), ref(python, "input"))
	require.True(t, verdict.Accepted, verdict.Reason)

	pruned, err := g.UpdateNodeData(python.ID, map[string]any{
		"inputSchema": map[string]any{
			"query": map[string]any{"type": "string", "required": true},
		},
	})
	require.NoError(t, err)

	assert.Len(t, pruned, 1)
	assert.Empty(t, g.Edges())
}

func TestGraph_UpdateNodeDataKeepsUIFlags(t *testing.T) {
	g := newTestGraph(t)

	prompt := addNode(t, g, models.NodeTypePrompt)
	prompt.Selected = true

	_, err := g.UpdateNodeData(prompt.ID, map[string]any{"name": "Greeting"})
	require.NoError(t, err)

	updated, _ := g.Node(prompt.ID)
	assert.True(t, updated.Selected)
	assert.False(t, updated.Dragging)
}

func TestGraph_CanConnectReportsDuplicate(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	output := addNode(t, g, models.NodeTypeChatOutput)

	verdict := g.CanConnect(ref(input, "output"), ref(output, "input"))
	require.True(t, verdict.Accepted, verdict.Reason)

	_, verdict = g.AddEdge(ref(input, "output"), ref(output, "input"))
	require.True(t, verdict.Accepted, verdict.Reason)

	verdict = g.CanConnect(ref(input, "output"), ref(output, "input"))
	assert.False(t, verdict.Accepted)
	assert.ErrorIs(t, verdict.Err(), ErrDuplicateEdge)
	assert.Len(t, g.Edges(), 1)
}

func TestGraph_UpdateNodeDataErrors(t *testing.T) {
	g := newTestGraph(t)

	prompt := addNode(t, g, models.NodeTypePrompt)

	_, err := g.UpdateNodeData("ghost", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = g.UpdateNodeData(prompt.ID, map[string]any{"template": 42})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = g.UpdateNodeData(prompt.ID, map[string]any{"name": make(chan int)})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	unchanged, _ := g.Node(prompt.ID)
	assert.Same(t, prompt, unchanged)
}

func TestGraph_StrictSchemaMode(t *testing.T) {
	inputSchema := map[string]any{
		"query": map[string]any{"type": "string", "required": true},
	}

	build := func(t *testing.T, mode SchemaMode) (*Graph, models.HandleRef, models.HandleRef) {
		t.Helper()

		g := newTestGraph(t, WithChecker(NewChecker(mode)))
		api := addNode(t, g, models.NodeTypeAPITool)
		python := addNode(t, g, models.NodeTypePythonCode)

		_, err := g.UpdateNodeData(python.ID, map[string]any{"inputSchema": inputSchema})
		require.NoError(t, err)

		return g, ref(api, "output"), ref(python, "input")
	}

	t.Run("permissive", func(t *testing.T) {
		g, source, target := build(t, SchemaModePermissive)

		_, verdict := g.AddEdge(source, target)
		assert.True(t, verdict.Accepted)
	})

	t.Run("strict", func(t *testing.T) {
		g, source, target := build(t, SchemaModeStrict)

		_, verdict := g.AddEdge(source, target)
		assert.False(t, verdict.Accepted)
		assert.ErrorIs(t, verdict.Err(), ErrSchemaMismatch)
		assert.Equal(t, []string{"Required field 'query' is missing in source schema"}, verdict.SchemaErrors)
		assert.Empty(t, g.Edges())
	})
}

func TestGraph_InsertNode(t *testing.T) {
	g := newTestGraph(t)
	input := addNode(t, g, models.NodeTypeChatInput)

	err := g.InsertNode(&models.Node{ID: input.ID, Type: models.NodeTypeChatInput, Data: input.Data})
	assert.ErrorIs(t, err, ErrDuplicateNodeID)

	err = g.InsertNode(&models.Node{ID: "x", Type: "unknownNode"})
	assert.True(t, registry.IsUnknownNodeType(err))

	err = g.InsertNode(&models.Node{Type: models.NodeTypeChatInput})
	assert.ErrorIs(t, err, ErrInvariantViolation)

	assert.Len(t, g.Nodes(), 1)
}

func TestGraph_MoveAndRemoveEdge(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	output := addNode(t, g, models.NodeTypeChatOutput)

	require.NoError(t, g.MoveNode(input.ID, models.Position{X: 1, Y: 2}))
	moved, _ := g.Node(input.ID)
	assert.Equal(t, models.Position{X: 1, Y: 2}, moved.Position)
	assert.ErrorIs(t, g.MoveNode("ghost", models.Position{}), ErrNodeNotFound)

	edge, verdict := g.AddEdge(ref(input, "output"), ref(output, "input"))
	require.True(t, verdict.Accepted)
	assert.Len(t, g.EdgesOf(output.ID), 1)

	require.NoError(t, g.RemoveEdge(edge.ID))
	assert.Empty(t, g.Edges())
	assert.ErrorIs(t, g.RemoveEdge(edge.ID), ErrEdgeNotFound)
}

func TestGraph_Clone(t *testing.T) {
	g := newTestGraph(t)
	g.Name = "Support bot"

	input := addNode(t, g, models.NodeTypeChatInput)
	prompt := addNode(t, g, models.NodeTypePrompt)

	_, verdict := g.AddEdge(ref(input, "output"), ref(prompt, "input_user_query"))
	require.True(t, verdict.Accepted)

	c, err := g.Clone()
	require.NoError(t, err)
	assert.Equal(t, g.Name, c.Name)
	assert.Equal(t, g.Edges(), c.Edges())

	_, err = c.UpdateNodeData(prompt.ID, map[string]any{"template": "no variables"})
	require.NoError(t, err)

	original, _ := g.Node(prompt.ID)
	assert.Contains(t, original.Data.(*models.TemplateData).Template, "{{user_query}}")
	assert.Len(t, g.Edges(), 1)
	assert.Empty(t, c.Edges())
}

func TestGraph_ValidateReportsEveryViolation(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	require.NoError(t, g.Validate())

	g.edges = append(g.edges, models.Edge{ID: "dangling", Source: input.ID, SourceHandle: "output", Target: "ghost", TargetHandle: "input"})
	g.nodes = append(g.nodes, &models.Node{ID: input.ID, Type: "unknownNode", Data: &models.ChatInputData{}})

	err := g.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "dangling target")
	assert.Contains(t, err.Error(), "duplicate node id")
	assert.Contains(t, err.Error(), "unknown type")
}

func TestGraph_ValidateReportsIncompatibleEdge(t *testing.T) {
	g := newTestGraph(t)

	input := addNode(t, g, models.NodeTypeChatInput)
	agent := addNode(t, g, models.NodeTypeAgent)

	g.edges = append(g.edges, models.Edge{ID: "retagged", Source: input.ID, SourceHandle: "output", Target: agent.ID, TargetHandle: "input_tools"})

	err := g.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.ErrorIs(t, err, ErrIncompatibleHandles)
	assert.Contains(t, err.Error(), "text -> tools")
}
