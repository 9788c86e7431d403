// Package file provides file-based persistence for workflow documents. Each
// workflow is stored as <root>/workflows/<id>.json.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	return &Persistence{
		root: strings.Replace(root, "file://", "", 1),
		now:  time.Now,
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// ListWorkflows returns one page of workflows, sorted in memory.
func (fp *Persistence) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	opts, err := persistence.NormalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	fp.mu.RLock()
	defer fp.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(fp.workflowsDir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	docs := make([]*document.Document, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		doc, err := fp.read(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		docs = append(docs, doc)
	}

	return persistence.SortAndPaginate(docs, opts), nil
}

// WorkflowByID retrieves a workflow by its ID from the file system.
func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*document.Document, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.read(id)
}

// SaveWorkflow stamps and writes a workflow, replacing any previous version.
func (fp *Persistence) SaveWorkflow(_ context.Context, doc *document.Document) error {
	err := persistence.Stamp(doc, fp.now())
	if err != nil {
		return err
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	err = os.MkdirAll(fp.workflowsDir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", doc.ID, err)
	}

	filePath, err := fp.filePath(doc.ID)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", doc.ID, err)
	}

	return os.WriteFile(filePath, data, 0600)
}

// DeleteWorkflow removes a workflow by its ID.
func (fp *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	filePath, err := fp.filePath(id)
	if err != nil {
		return persistence.NewWorkflowError("DeleteWorkflow", id, err)
	}

	err = os.Remove(filePath)
	if os.IsNotExist(err) {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func (fp *Persistence) read(id string) (*document.Document, error) {
	filePath, err := fp.filePath(id)
	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	body, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var doc document.Document

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &doc, nil
}

func (fp *Persistence) workflowsDir() string {
	return path.Join(fp.root, "workflows")
}

// filePath maps an id to its file, refusing ids that would escape the
// workflows directory.
func (fp *Persistence) filePath(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", persistence.ErrWorkflowNotFound
	}

	return filepath.Clean(path.Join(fp.workflowsDir(), id+".json")), nil
}
