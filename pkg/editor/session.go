// Package editor holds an editing session: one workflow graph, the commands
// that mutate it, and the save, load and node test round trips to a backend.
//
// A Session is safe for concurrent use. Network calls are made without the
// session lock held, so the graph stays editable while they are in flight.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/genagent/agentflow/pkg/backend"
	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/tools"
)

var (
	ErrStaleResult = errors.New("test result is no longer relevant")
	ErrNotTestable = errors.New("node cannot be tested")
)

type Session struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	catalog graph.Catalog
	checker *graph.Checker
	backend backend.Backend
	logger  *slog.Logger

	graph     *graph.Graph
	lastSaved *document.Document
	// generation changes whenever a different workflow is loaded, so late
	// save results are not applied to the wrong graph.
	generation uint64

	tests *tickets
}

type Option func(*Session)

func WithChecker(checker *graph.Checker) Option {
	return func(s *Session) {
		s.checker = checker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession starts a session on a new, empty workflow.
func NewSession(catalog graph.Catalog, b backend.Backend, opts ...Option) *Session {
	s := &Session{
		catalog: catalog,
		checker: graph.NewChecker(graph.SchemaModePermissive),
		backend: b,
		logger:  slog.Default(),
		tests:   newTickets(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("module", "editor")
	s.graph = graph.New(catalog, graph.WithChecker(s.checker))
	s.lastSaved, _ = document.Serialize(s.graph)

	return s
}

// Dispatch applies a command to the graph.
func (s *Session) Dispatch(cmd Command) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome, err := cmd.apply(s.graph)
	if err != nil {
		return Outcome{}, err
	}

	if len(outcome.RemovedEdges) > 0 {
		s.logger.Debug("Edges pruned", "count", len(outcome.RemovedEdges))
	}

	return outcome, nil
}

// Handle returns the command handle for a node in the current graph.
func (s *Session) Handle(nodeID string) (NodeHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graph.Node(nodeID); !ok {
		return NodeHandle{}, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, nodeID)
	}

	return NodeHandle{session: s, nodeID: nodeID}, nil
}

// AddNode places a new node of typeID and returns its handle.
func (s *Session) AddNode(typeID string, position models.Position) (NodeHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.graph.AddNode(typeID, position)
	if err != nil {
		return NodeHandle{}, err
	}

	return NodeHandle{session: s, nodeID: node.ID}, nil
}

// CanConnect previews a connection without changing the graph.
func (s *Session) CanConnect(source, target models.HandleRef) graph.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.CanConnect(source, target)
}

// Connect adds an edge. A rejection is returned as an error and leaves the
// graph untouched.
func (s *Session) Connect(source, target models.HandleRef) (models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge, verdict := s.graph.AddEdge(source, target)
	if !verdict.Accepted {
		return models.Edge{}, verdict.Err()
	}

	return edge, nil
}

func (s *Session) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.RemoveEdge(edgeID)
}

// SetDetails changes the workflow name and description.
func (s *Session) SetDetails(name, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph.Name = name
	s.graph.Description = description
}

// Node returns a copy of one node of the current graph.
func (s *Session) Node(nodeID string) (models.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.graph.Node(nodeID)
	if !ok {
		return models.Node{}, false
	}

	return *node, true
}

// WorkflowID returns the id assigned by the server, or "" before the first save.
func (s *Session) WorkflowID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.graph.ID
}

// Document serializes the current graph.
func (s *Session) Document() (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// HasUnsavedChanges compares the graph with what was last saved or loaded.
func (s *Session) HasUnsavedChanges() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.snapshot()
	if err != nil {
		return false, err
	}

	return document.Diff(s.lastSaved, current), nil
}

// Save creates the workflow on its first save and updates it afterwards.
// Edits made while the request is in flight stay unsaved. On failure the
// graph is left as it is and the error is returned.
func (s *Session) Save(ctx context.Context) (*document.Document, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()

	sent, err := s.snapshot()
	generation := s.generation
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	payload, err := sent.Copy()
	if err != nil {
		return nil, fmt.Errorf("failed to copy workflow: %w", err)
	}

	var saved *document.Document

	if sent.ID == "" {
		saved, err = s.backend.CreateWorkflow(ctx, payload)
	} else {
		saved, err = s.backend.UpdateWorkflow(ctx, sent.ID, payload)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save workflow", "workflow_id", sent.ID, "error", err)

		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		s.logger.WarnContext(ctx, "Discarding save result for a workflow that is no longer open", "workflow_id", saved.ID)

		return saved, nil
	}

	s.graph.ID = saved.ID
	s.graph.CreatedAt = saved.CreatedAt
	s.graph.UpdatedAt = saved.UpdatedAt

	if saved.Version != "" {
		s.graph.Version = saved.Version
	}

	sent.ID = saved.ID
	sent.CreatedAt = saved.CreatedAt
	sent.UpdatedAt = saved.UpdatedAt
	s.lastSaved = sent

	s.logger.InfoContext(ctx, "Workflow saved", "workflow_id", saved.ID)

	return saved, nil
}

// Open replaces the session graph with a stored workflow. Skipped nodes and
// edges are listed in the report. On error the current graph is kept.
func (s *Session) Open(ctx context.Context, id string) (*document.LoadReport, error) {
	doc, err := s.backend.GetWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open workflow %s: %w", id, err)
	}

	return s.load(doc)
}

// Import replaces the session graph with a workflow file. A malformed file
// changes nothing.
func (s *Session) Import(body []byte) (*document.LoadReport, error) {
	doc, err := document.Parse(body)
	if err != nil {
		return nil, err
	}

	return s.load(doc)
}

// Export renders the current graph as an indented JSON document.
func (s *Session) Export() ([]byte, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}

	return document.Encode(doc)
}

// TestNode runs the node's tool with inputs. Starting another test on the
// same node or calling CancelTest turns the pending result into
// ErrStaleResult.
func (s *Session) TestNode(ctx context.Context, nodeID string, inputs map[string]any) (*tools.Result, error) {
	s.mu.Lock()

	node, ok := s.graph.Node(nodeID)
	if !ok {
		s.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, nodeID)
	}

	kind, err := tools.ParseKind(node.Type)
	if err != nil {
		s.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrNotTestable, node.Type)
	}

	config, err := json.Marshal(node.Data)
	if err != nil {
		s.mu.Unlock()

		return nil, fmt.Errorf("failed to encode node %s: %w", nodeID, err)
	}

	// Issued under s.mu: any later load resets it, so a result computed
	// against the old graph is always stale.
	ticket := s.tests.issue(nodeID)
	s.mu.Unlock()

	result, err := s.backend.TestNode(ctx, string(kind), config, inputs)

	if !s.tests.redeem(nodeID, ticket) {
		s.logger.DebugContext(ctx, "Discarding stale test result", "node_id", nodeID)

		return nil, ErrStaleResult
	}

	if err != nil {
		return nil, fmt.Errorf("failed to test node %s: %w", nodeID, err)
	}

	return result, nil
}

// CancelTest marks the pending test of a node as no longer relevant. It
// reports whether a test was pending. The request itself is not aborted.
func (s *Session) CancelTest(nodeID string) bool {
	return s.tests.cancel(nodeID)
}

// Testing reports whether a test is pending for the node.
func (s *Session) Testing(nodeID string) bool {
	return s.tests.pending(nodeID)
}

func (s *Session) load(doc *document.Document) (*document.LoadReport, error) {
	g, report, err := document.Deserialize(doc, s.catalog, graph.WithChecker(s.checker))
	if err != nil {
		return nil, err
	}

	loaded, err := document.Serialize(g)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = g
	s.lastSaved = loaded
	s.generation++
	s.tests.reset()

	if !report.Clean() {
		s.logger.Warn("Workflow loaded with skipped items",
			"workflow_id", doc.ID,
			"skipped_nodes", len(report.SkippedNodes),
			"skipped_edges", len(report.SkippedEdges))
	}

	return report, nil
}

// snapshot must be called with s.mu held.
func (s *Session) snapshot() (*document.Document, error) {
	doc, err := document.Serialize(s.graph)
	if err != nil {
		return nil, err
	}

	return doc.Copy()
}
