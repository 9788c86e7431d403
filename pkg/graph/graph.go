// Package graph holds the workflow graph aggregate: node instances, the edges
// between their handles, and the invariants that tie them together.
//
// A Graph is not safe for concurrent use. Callers that mutate a graph from
// several goroutines must guard it themselves.
package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/protocol"
	"github.com/genagent/agentflow/pkg/registry"
	"github.com/google/uuid"
)

// DefaultVersion is the version given to new workflows.
const DefaultVersion = "1.0"

// Catalog resolves node types. It is satisfied by *registry.Registry.
type Catalog interface {
	Get(typeID string) (protocol.NodeType, bool)
	Instantiate(typeID, id string, position models.Position, overrides models.NodeData) (*models.Node, error)
	DecodeData(typeID string, raw json.RawMessage) (models.NodeData, error)
}

// Graph is one workflow: its metadata, nodes and edges.
type Graph struct {
	ID          string
	Name        string
	Description string
	Version     string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time

	catalog Catalog
	checker *Checker
	nodes   []*models.Node
	edges   []models.Edge
	newID   func() string
}

// Option configures a Graph.
type Option func(*Graph)

// WithChecker replaces the permissive default connection checker.
func WithChecker(checker *Checker) Option {
	return func(g *Graph) {
		g.checker = checker
	}
}

// WithIDGenerator replaces the UUID generator used for new node ids.
func WithIDGenerator(fn func() string) Option {
	return func(g *Graph) {
		g.newID = fn
	}
}

// New creates an empty, unsaved graph backed by catalog.
func New(catalog Catalog, opts ...Option) *Graph {
	g := &Graph{
		Version: DefaultVersion,
		catalog: catalog,
		checker: NewChecker(SchemaModePermissive),
		nodes:   make([]*models.Node, 0),
		edges:   make([]models.Edge, 0),
		newID:   uuid.NewString,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Graph) Catalog() Catalog {
	return g.catalog
}

func (g *Graph) Checker() *Checker {
	return g.checker
}

// Nodes returns the nodes in insertion order. The nodes must be treated as
// read-only; mutate them through the graph.
func (g *Graph) Nodes() []*models.Node {
	out := make([]*models.Node, len(g.nodes))
	copy(out, g.nodes)

	return out
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []models.Edge {
	out := make([]models.Edge, len(g.edges))
	copy(out, g.edges)

	return out
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (*models.Node, bool) {
	i := g.nodeIndex(id)
	if i < 0 {
		return nil, false
	}

	return g.nodes[i], true
}

// EdgesOf returns every edge touching the node.
func (g *Graph) EdgesOf(nodeID string) []models.Edge {
	out := make([]models.Edge, 0)

	for _, edge := range g.edges {
		if edge.References(nodeID) {
			out = append(out, edge)
		}
	}

	return out
}

// CanConnect asks the graph's checker about a proposed edge.
func (g *Graph) CanConnect(source, target models.HandleRef) Verdict {
	return g.checker.CanConnect(g, source, target)
}

// AddNode instantiates a node of typeID with a fresh id and appends it.
func (g *Graph) AddNode(typeID string, position models.Position) (*models.Node, error) {
	node, err := g.catalog.Instantiate(typeID, g.newID(), position, nil)
	if err != nil {
		return nil, err
	}

	g.nodes = append(g.nodes, node)

	return node, nil
}

// InsertNode appends an already built node, keeping its id.
func (g *Graph) InsertNode(node *models.Node) error {
	if node == nil || node.ID == "" {
		return fmt.Errorf("%w: node without id", ErrInvariantViolation)
	}

	if _, ok := g.catalog.Get(node.Type); !ok {
		return fmt.Errorf("node %s: %w", node.ID, &registry.UnknownTypeError{TypeID: node.Type})
	}

	if g.nodeIndex(node.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, node.ID)
	}

	g.nodes = append(g.nodes, node)

	return nil
}

// RemoveNode deletes a node and every edge that references it. The removed
// edges are returned.
func (g *Graph) RemoveNode(id string) ([]models.Edge, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)

	return g.removeEdgesWhere(func(edge models.Edge) bool {
		return edge.References(id)
	}), nil
}

// MoveNode changes the canvas position of a node.
func (g *Graph) MoveNode(id string, position models.Position) error {
	node, ok := g.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	node.Position = position

	return nil
}

// AddEdge connects two handles when the checker accepts. A rejected
// connection leaves the graph untouched.
func (g *Graph) AddEdge(source, target models.HandleRef) (models.Edge, Verdict) {
	edge := models.Edge{
		ID:           models.MakeEdgeID(source, target),
		Source:       source.NodeID,
		SourceHandle: source.HandleID,
		Target:       target.NodeID,
		TargetHandle: target.HandleID,
	}

	verdict := g.InsertEdge(edge)
	if !verdict.Accepted {
		return models.Edge{}, verdict
	}

	return edge, verdict
}

// InsertEdge adds a prebuilt edge, keeping its id and data, under the same
// rules as AddEdge. An empty id is derived from the endpoints.
func (g *Graph) InsertEdge(edge models.Edge) Verdict {
	source, target := edge.SourceRef(), edge.TargetRef()

	verdict := g.CanConnect(source, target)
	if !verdict.Accepted {
		return verdict
	}

	if edge.ID == "" {
		edge.ID = models.MakeEdgeID(source, target)
	}

	for _, existing := range g.edges {
		if existing.ID == edge.ID {
			return reject(source, target, ErrDuplicateEdge, "edge id "+edge.ID+" is taken")
		}
	}

	g.edges = append(g.edges, edge)

	return verdict
}

// RemoveEdge deletes an edge by id.
func (g *Graph) RemoveEdge(id string) error {
	removed := g.removeEdgesWhere(func(edge models.Edge) bool {
		return edge.ID == id
	})
	if len(removed) == 0 {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}

	return nil
}

// UpdateNodeData shallow-merges patch into the node's data: supplied keys
// overwrite, omitted keys are kept. The node is rebuilt by its type so handles
// derived from the data are recomputed in the same call. Edges of the node
// that the checker no longer accepts, because their handle is gone or now
// carries an incompatible tag or schema, are pruned and returned.
//
// On error the graph is unchanged.
func (g *Graph) UpdateNodeData(id string, patch map[string]any) ([]models.Edge, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	current := g.nodes[i]

	merged, err := mergeData(current.Data, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	data, err := g.catalog.DecodeData(current.Type, merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	rebuilt, err := g.catalog.Instantiate(current.Type, current.ID, current.Position, data)
	if err != nil {
		return nil, err
	}

	rebuilt.Selected = current.Selected
	rebuilt.Dragging = current.Dragging
	g.nodes[i] = rebuilt

	return g.removeEdgesWhere(func(edge models.Edge) bool {
		return edge.References(id) && !g.checker.Recheck(g, edge).Accepted
	}), nil
}

// Validate checks every structural invariant and reports all violations.
func (g *Graph) Validate() error {
	var errs []error

	seen := make(map[string]struct{}, len(g.nodes))

	for _, node := range g.nodes {
		if node.ID == "" {
			errs = append(errs, fmt.Errorf("%w: node without id", ErrInvariantViolation))
			continue
		}

		if _, dup := seen[node.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate node id %s", ErrInvariantViolation, node.ID))
		}

		seen[node.ID] = struct{}{}

		if _, ok := g.catalog.Get(node.Type); !ok {
			errs = append(errs, fmt.Errorf("%w: node %s has unknown type %s", ErrInvariantViolation, node.ID, node.Type))
		}

		handles := make(map[string]struct{})
		for _, h := range node.Handles() {
			if _, dup := handles[h.ID]; dup {
				errs = append(errs, fmt.Errorf("%w: node %s has duplicate handle %s", ErrInvariantViolation, node.ID, h.ID))
			}

			handles[h.ID] = struct{}{}
		}
	}

	for _, edge := range g.edges {
		source, ok := g.Node(edge.Source)
		if !ok || !hasHandle(source, edge.SourceHandle, models.HandleSource) {
			errs = append(errs, fmt.Errorf("%w: edge %s has a dangling source %s", ErrInvariantViolation, edge.ID, edge.SourceRef()))
		}

		target, ok := g.Node(edge.Target)
		if !ok || !hasHandle(target, edge.TargetHandle, models.HandleTarget) {
			errs = append(errs, fmt.Errorf("%w: edge %s has a dangling target %s", ErrInvariantViolation, edge.ID, edge.TargetRef()))
			continue
		}

		if source == nil || !hasHandle(source, edge.SourceHandle, models.HandleSource) {
			continue
		}

		if verdict := g.checker.Recheck(g, edge); !verdict.Accepted {
			errs = append(errs, fmt.Errorf("%w: edge %s: %w", ErrInvariantViolation, edge.ID, verdict.Err()))
		}
	}

	return errors.Join(errs...)
}

// Clone returns a deep copy sharing only the catalog and checker.
func (g *Graph) Clone() (*Graph, error) {
	out := &Graph{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Version:     g.Version,
		CreatedAt:   copyTime(g.CreatedAt),
		UpdatedAt:   copyTime(g.UpdatedAt),
		catalog:     g.catalog,
		checker:     g.checker,
		nodes:       make([]*models.Node, 0, len(g.nodes)),
		edges:       make([]models.Edge, 0, len(g.edges)),
		newID:       g.newID,
	}

	for _, node := range g.nodes {
		raw, err := json.Marshal(node.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to copy node %s: %w", node.ID, err)
		}

		data, err := g.catalog.DecodeData(node.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to copy node %s: %w", node.ID, err)
		}

		out.nodes = append(out.nodes, &models.Node{
			ID:       node.ID,
			Type:     node.Type,
			Position: node.Position,
			Data:     data,
			Selected: node.Selected,
			Dragging: node.Dragging,
		})
	}

	for _, edge := range g.edges {
		copied := edge
		if edge.Data != nil {
			copied.Data = make(map[string]any, len(edge.Data))
			for k, v := range edge.Data {
				copied.Data[k] = v
			}
		}

		out.edges = append(out.edges, copied)
	}

	return out, nil
}

func (g *Graph) nodeIndex(id string) int {
	for i, node := range g.nodes {
		if node.ID == id {
			return i
		}
	}

	return -1
}

func (g *Graph) removeEdgesWhere(match func(models.Edge) bool) []models.Edge {
	removed := make([]models.Edge, 0)
	kept := g.edges[:0]

	for _, edge := range g.edges {
		if match(edge) {
			removed = append(removed, edge)
			continue
		}

		kept = append(kept, edge)
	}

	g.edges = kept

	return removed
}

func hasHandle(node *models.Node, handleID string, direction models.HandleDirection) bool {
	h, ok := node.Handle(handleID)

	return ok && h.Direction == direction
}

func mergeData(data models.NodeData, patch map[string]any) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal(raw, &fields)
		if err != nil {
			return nil, err
		}
	}

	for key, value := range patch {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}

		fields[key] = raw
	}

	return json.Marshal(fields)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	c := *t

	return &c
}
