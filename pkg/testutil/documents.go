// Package testutil provides test data builders for workflow documents.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewRegistry returns a registry holding the built-in node types and
// logging nowhere.
func NewRegistry() *registry.Registry {
	reg := registry.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.RegisterDefaultNodes()

	return reg
}

// CreateTestDocument builds a chat input wired into a prompt that reads
// {{user_query}}, then applies overrides to the serialized document.
func CreateTestDocument(t testing.TB, catalog graph.Catalog, overrides ...func(*document.Document)) *document.Document {
	t.Helper()

	g := graph.New(catalog)
	g.Name = "Test Workflow"
	g.Description = "A workflow for testing"

	input, err := g.AddNode(models.NodeTypeChatInput, models.Position{})
	require.NoError(t, err)

	prompt, err := g.AddNode(models.NodeTypePrompt, models.Position{X: 200})
	require.NoError(t, err)

	_, err = g.UpdateNodeData(prompt.ID, map[string]any{"template": "Answer {{user_query}}"})
	require.NoError(t, err)

	_, verdict := g.AddEdge(
		models.HandleRef{NodeID: input.ID, HandleID: "output"},
		models.HandleRef{NodeID: prompt.ID, HandleID: "input_user_query"},
	)
	require.True(t, verdict.Accepted, verdict.Reason)

	doc, err := document.Serialize(g)
	require.NoError(t, err)

	for _, override := range overrides {
		override(doc)
	}

	return doc
}

// WithName sets the workflow name.
func WithName(name string) func(*document.Document) {
	return func(d *document.Document) {
		d.Name = name
	}
}

// WithID sets the workflow ID.
func WithID(id string) func(*document.Document) {
	return func(d *document.Document) {
		d.ID = id
	}
}

// WithEdge appends an edge without checking it.
func WithEdge(edge document.EdgeDocument) func(*document.Document) {
	return func(d *document.Document) {
		d.Edges = append(d.Edges, edge)
	}
}

// CreateTestEdge creates an edge document between two handles.
func CreateTestEdge(source, sourceHandle, target, targetHandle string) document.EdgeDocument {
	return document.EdgeDocument{
		ID:           uuid.New().String(),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
}
