package file

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) (*Persistence, string) {
	t.Helper()

	dir := t.TempDir()

	fp, ok := NewPersistence(dir).(*Persistence)
	require.True(t, ok)

	return fp, dir
}

func testDocument(id, name string) *document.Document {
	return &document.Document{
		ID:          id,
		Name:        name,
		Description: "Test workflow description",
		Version:     "1.0",
		Nodes: []document.NodeDocument{
			{ID: "in", Type: "chatInputNode", Data: json.RawMessage(`{"name":"Chat Input","handlers":[]}`)},
		},
		Edges: []document.EdgeDocument{},
	}
}

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_Close(t *testing.T) {
	fp, _ := newTestPersistence(t)
	assert.NoError(t, fp.Close(t.Context()))
}

func TestPersistence_HealthCheck(t *testing.T) {
	fp, _ := newTestPersistence(t)
	assert.NoError(t, fp.HealthCheck(t.Context()))

	missing := NewPersistence(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, missing.HealthCheck(t.Context()))
}

func TestPersistence_SaveWorkflow(t *testing.T) {
	fp, dir := newTestPersistence(t)

	doc := testDocument("test-workflow", "Test Workflow")

	err := fp.SaveWorkflow(t.Context(), doc)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "workflows", "test-workflow.json"))
	require.NotNil(t, doc.CreatedAt)
	require.NotNil(t, doc.UpdatedAt)
}

func TestPersistence_SaveWorkflow_AssignsID(t *testing.T) {
	fp, dir := newTestPersistence(t)

	doc := testDocument("", "No ID yet")

	err := fp.SaveWorkflow(t.Context(), doc)
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)

	assert.FileExists(t, filepath.Join(dir, "workflows", doc.ID+".json"))
}

func TestPersistence_SaveWorkflow_UpdatesTimestamp(t *testing.T) {
	fp, _ := newTestPersistence(t)

	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := testDocument("update-workflow", "Update Test Workflow")
	doc.CreatedAt = &created

	err := fp.SaveWorkflow(t.Context(), doc)
	require.NoError(t, err)

	assert.Equal(t, created, *doc.CreatedAt)
	assert.True(t, doc.UpdatedAt.After(*doc.CreatedAt))
}

func TestPersistence_WorkflowByID(t *testing.T) {
	fp, _ := newTestPersistence(t)

	err := fp.SaveWorkflow(t.Context(), testDocument("fetch-workflow", "Fetch Test Workflow"))
	require.NoError(t, err)

	fetched, err := fp.WorkflowByID(t.Context(), "fetch-workflow")
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, "fetch-workflow", fetched.ID)
	assert.Equal(t, "Fetch Test Workflow", fetched.Name)
	assert.Equal(t, "Test workflow description", fetched.Description)
	require.Len(t, fetched.Nodes, 1)
	assert.Equal(t, "in", fetched.Nodes[0].ID)
	assert.JSONEq(t, `{"name":"Chat Input","handlers":[]}`, string(fetched.Nodes[0].Data))
}

func TestPersistence_WorkflowByID_NotFound(t *testing.T) {
	fp, _ := newTestPersistence(t)

	for _, id := range []string{"non-existent", "../etc/passwd", ""} {
		doc, err := fp.WorkflowByID(t.Context(), id)
		require.Error(t, err, id)
		assert.Nil(t, doc)
		assert.True(t, persistence.IsWorkflowNotFound(err), id)
	}
}

func TestPersistence_ListWorkflows(t *testing.T) {
	fp, _ := newTestPersistence(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"Charlie", "Alpha", "Bravo"} {
		doc := testDocument(fmt.Sprintf("workflow-%d", i+1), name)
		created := base.Add(time.Duration(i) * time.Hour)
		doc.CreatedAt = &created

		require.NoError(t, fp.SaveWorkflow(t.Context(), doc))
	}

	result, err := fp.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalCount)
	require.Len(t, result.Workflows, 3)
	assert.Equal(t, "workflow-3", result.Workflows[0].ID)

	result, err = fp.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{SortBy: "name", SortOrder: "asc", Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "Alpha", result.Workflows[0].Name)
	assert.Equal(t, "Bravo", result.Workflows[1].Name)
	assert.True(t, result.HasNextPage)

	_, err = fp.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{SortBy: "name; DROP TABLE workflows; --"})
	assert.ErrorIs(t, err, persistence.ErrInvalidSortField)
}

func TestPersistence_ListWorkflows_NoDirectory(t *testing.T) {
	fp, _ := newTestPersistence(t)

	// fs.Glob on a non-existent directory returns an empty slice with no error
	result, err := fp.ListWorkflows(t.Context(), persistence.ListWorkflowsOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
	assert.Zero(t, result.TotalCount)
}

func TestPersistence_DeleteWorkflow(t *testing.T) {
	fp, dir := newTestPersistence(t)

	err := fp.SaveWorkflow(t.Context(), testDocument("delete-workflow", "Delete Test Workflow"))
	require.NoError(t, err)

	filePath := filepath.Join(dir, "workflows", "delete-workflow.json")
	assert.FileExists(t, filePath)

	err = fp.DeleteWorkflow(t.Context(), "delete-workflow")
	require.NoError(t, err)
	assert.NoFileExists(t, filePath)

	err = fp.DeleteWorkflow(t.Context(), "delete-workflow")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}
