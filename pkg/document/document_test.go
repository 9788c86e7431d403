package document

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.NewRegistry(slog.Default())
	r.RegisterDefaultNodes()

	return r
}

func connect(t *testing.T, g *graph.Graph, source, sourceHandle, target, targetHandle string) {
	t.Helper()

	_, verdict := g.AddEdge(
		models.HandleRef{NodeID: source, HandleID: sourceHandle},
		models.HandleRef{NodeID: target, HandleID: targetHandle},
	)
	require.True(t, verdict.Accepted, verdict.Reason)
}

func buildGraph(t *testing.T, reg *registry.Registry) *graph.Graph {
	t.Helper()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	g := graph.New(reg)
	g.ID = "wf-1"
	g.Name = "Support assistant"
	g.Description = "Answers customer questions"
	g.CreatedAt = &created
	g.UpdatedAt = &created

	add := func(typeID string, x float64) *models.Node {
		node, err := g.AddNode(typeID, models.Position{X: x, Y: 100})
		require.NoError(t, err)

		return node
	}

	input := add(models.NodeTypeChatInput, 0)
	prompt := add(models.NodeTypePrompt, 200)
	agent := add(models.NodeTypeAgent, 400)
	api := add(models.NodeTypeAPITool, 400)
	output := add(models.NodeTypeChatOutput, 600)

	_, err := g.UpdateNodeData(api.ID, map[string]any{
		"endpoint": "https://api.example.com/orders/@order_id",
		"headers":  map[string]string{"Authorization": "Bearer {{token}}"},
	})
	require.NoError(t, err)

	connect(t, g, input.ID, "output", prompt.ID, "input_user_query")
	connect(t, g, prompt.ID, "output", agent.ID, "input_prompt")
	connect(t, g, api.ID, "output_reference", agent.ID, "input_tools")
	connect(t, g, agent.ID, "output", output.ID, "input")

	return g
}

func TestRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	g := buildGraph(t, reg)

	doc, err := Serialize(g)
	require.NoError(t, err)

	body, err := Encode(doc)
	require.NoError(t, err)

	parsed, err := Parse(body)
	require.NoError(t, err)

	loaded, report, err := Deserialize(parsed, reg)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	require.NoError(t, report.Err())
	require.NoError(t, loaded.Validate())

	again, err := Serialize(loaded)
	require.NoError(t, err)

	assert.False(t, Diff(doc, again), Changes(doc, again))
	assert.Equal(t, doc.ID, again.ID)
	assert.Equal(t, doc.Version, again.Version)
	assert.True(t, doc.CreatedAt.Equal(*again.CreatedAt))
	assert.Equal(t, doc.Edges, again.Edges)

	for i := range doc.Nodes {
		assert.JSONEq(t, string(doc.Nodes[i].Data), string(again.Nodes[i].Data))
	}
}

func TestRoundTripAfterRetag(t *testing.T) {
	reg := newTestRegistry(t)
	g := buildGraph(t, reg)

	var agentID string

	for _, node := range g.Nodes() {
		if node.Type == models.NodeTypeAgent {
			agentID = node.ID
		}
	}

	pruned, err := g.UpdateNodeData(agentID, map[string]any{"outputFormat": models.OutputFormatJSON})
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	assert.Equal(t, "output", pruned[0].SourceHandle)
	require.NoError(t, g.Validate())

	doc, err := Serialize(g)
	require.NoError(t, err)

	loaded, report, err := Deserialize(doc, reg)
	require.NoError(t, err)
	assert.True(t, report.Clean(), report.Err())
	assert.Len(t, loaded.Edges(), len(g.Edges()))
}

func TestRoundTripKeepsUIFlags(t *testing.T) {
	reg := newTestRegistry(t)

	doc, err := Serialize(buildGraph(t, reg))
	require.NoError(t, err)

	doc.Nodes[0].Selected = true
	doc.Nodes[1].Dragging = true
	doc.Edges[0].Selected = true

	loaded, report, err := Deserialize(doc, reg)
	require.NoError(t, err)
	require.True(t, report.Clean())

	again, err := Serialize(loaded)
	require.NoError(t, err)

	assert.True(t, again.Nodes[0].Selected)
	assert.True(t, again.Nodes[1].Dragging)
	assert.False(t, again.Nodes[1].Selected)
	assert.True(t, again.Edges[0].Selected)
}

func TestDeserializeRecomputesDerivedHandles(t *testing.T) {
	reg := newTestRegistry(t)

	doc := &Document{
		Name: "stale handles",
		Nodes: []NodeDocument{{
			ID:   "p1",
			Type: models.NodeTypePrompt,
			Data: json.RawMessage(`{"name":"Prompt","template":"{{city}} weather","handlers":[{"id":"input_old","type":"target","compatibility":"text"}]}`),
		}},
	}

	g, report, err := Deserialize(doc, reg)
	require.NoError(t, err)
	require.True(t, report.Clean())

	node, ok := g.Node("p1")
	require.True(t, ok)

	_, ok = node.Handle("input_city")
	assert.True(t, ok)

	_, ok = node.Handle("input_old")
	assert.False(t, ok)
	assert.Equal(t, graph.DefaultVersion, g.Version)
}

func TestDeserializeSkipsUnknownTypes(t *testing.T) {
	reg := newTestRegistry(t)

	doc := &Document{
		Name: "partial",
		Nodes: []NodeDocument{
			{ID: "in", Type: models.NodeTypeChatInput, Data: json.RawMessage(`{"name":"In"}`)},
			{ID: "legacy", Type: "legacyNode", Data: json.RawMessage(`{}`)},
			{ID: "out", Type: models.NodeTypeChatOutput, Data: json.RawMessage(`{"name":"Out"}`)},
			{ID: "bad", Type: models.NodeTypeSlackMessage, Data: json.RawMessage(`{"channel":5}`)},
		},
		Edges: []EdgeDocument{
			{ID: "e1", Source: "in", SourceHandle: "output", Target: "out", TargetHandle: "input"},
			{ID: "e2", Source: "in", SourceHandle: "output", Target: "legacy", TargetHandle: "input"},
		},
	}

	g, report, err := Deserialize(doc, reg)
	require.NoError(t, err)
	assert.False(t, report.Clean())

	require.Len(t, report.SkippedNodes, 2)
	assert.Equal(t, "legacy", report.SkippedNodes[0].ID)
	assert.Equal(t, "bad", report.SkippedNodes[1].ID)
	require.Len(t, report.SkippedEdges, 1)
	assert.Equal(t, "e2", report.SkippedEdges[0].ID)

	assert.True(t, registry.IsUnknownNodeType(report.Err()))
	assert.ErrorIs(t, report.Err(), graph.ErrTargetNodeNotFound)

	assert.Len(t, g.Nodes(), 2)
	assert.Len(t, g.Edges(), 1)
	require.NoError(t, g.Validate())
}

func TestDeserializeWithEmptyRegistry(t *testing.T) {
	doc := &Document{
		Name:  "any",
		Nodes: []NodeDocument{{ID: "in", Type: models.NodeTypeChatInput}},
	}

	_, _, err := Deserialize(doc, registry.NewRegistry(slog.Default()))
	assert.ErrorIs(t, err, registry.ErrRegistryNotPopulated)
}

func TestDiff(t *testing.T) {
	base := func() *Document {
		return &Document{
			ID:          "wf-1",
			Name:        "Flow",
			Description: "desc",
			Version:     "1.0",
			Nodes: []NodeDocument{
				{ID: "a", Type: models.NodeTypeChatInput, Data: json.RawMessage(`{"name":"In","handlers":[]}`)},
			},
			Edges: []EdgeDocument{
				{ID: "e", Source: "a", SourceHandle: "output", Target: "b", TargetHandle: "input"},
			},
		}
	}

	now := time.Now()

	tests := []struct {
		name    string
		mutate  func(d *Document)
		changed bool
	}{
		{"identical", func(d *Document) {}, false},
		{"selection", func(d *Document) { d.Nodes[0].Selected = true; d.Edges[0].Selected = true }, false},
		{"dragging", func(d *Document) { d.Nodes[0].Dragging = true }, false},
		{"timestamps", func(d *Document) { d.CreatedAt = &now; d.UpdatedAt = &now }, false},
		{"data key order", func(d *Document) { d.Nodes[0].Data = json.RawMessage(`{ "handlers": [], "name": "In" }`) }, false},
		{"name", func(d *Document) { d.Name = "Other" }, true},
		{"description", func(d *Document) { d.Description = "" }, true},
		{"node data", func(d *Document) { d.Nodes[0].Data = json.RawMessage(`{"name":"Renamed","handlers":[]}`) }, true},
		{"position", func(d *Document) { d.Nodes[0].Position.X = 50 }, true},
		{"edge removed", func(d *Document) { d.Edges = d.Edges[:0] }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := base()
			tt.mutate(changed)

			assert.Equal(t, tt.changed, Diff(base(), changed))
		})
	}

	assert.True(t, Diff(nil, base()))
	assert.False(t, Diff(nil, nil))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"not json", `{"name": "broken"`, ErrMalformedJSON},
		{"empty", ``, ErrMalformedJSON},
		{"array", `[]`, ErrInvalidStructure},
		{"missing name", `{"nodes": [], "edges": []}`, ErrInvalidStructure},
		{"missing edges", `{"name": "x", "nodes": []}`, ErrInvalidStructure},
		{"node without type", `{"name": "x", "nodes": [{"id": "a", "position": {"x": 0, "y": 0}, "data": {}}], "edges": []}`, ErrInvalidStructure},
		{"bad timestamp", `{"name": "x", "nodes": [], "edges": [], "created_at": "yesterday"}`, ErrInvalidStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsParseError(err))
		})
	}

	doc, err := Parse([]byte(`{"name": "ok", "description": "", "version": "1.0", "nodes": [{"id": "a", "type": "chatInputNode", "position": {"x": 1, "y": 2}, "data": {"name": "In"}}], "edges": []}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.Name)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, models.Position{X: 1, Y: 2}, doc.Nodes[0].Position)
}

func TestSummary(t *testing.T) {
	g := buildGraph(t, newTestRegistry(t))

	doc, err := Serialize(g)
	require.NoError(t, err)

	summary := doc.Summary()
	assert.Equal(t, "wf-1", summary.ID)
	assert.Equal(t, 5, summary.NodeCount)
	assert.Equal(t, 4, summary.EdgeCount)

	copied, err := doc.Copy()
	require.NoError(t, err)
	assert.False(t, Diff(doc, copied))
}
