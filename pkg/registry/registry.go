// Package registry provides the catalog of node types available to workflows.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/protocol"
)

// Registry is the node type catalog. It is safe for concurrent use and keeps
// node types in first registration order.
type Registry struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	nodeTypes map[string]protocol.NodeType
	order     []string
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		nodeTypes: make(map[string]protocol.NodeType),
		order:     make([]string, 0),
	}
}

// Register inserts or replaces a node type keyed by its ID. A replaced type
// keeps its position in listings.
func (r *Registry) Register(nodeType protocol.NodeType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodeTypes[nodeType.ID()]; !exists {
		r.order = append(r.order, nodeType.ID())
	}

	r.nodeTypes[nodeType.ID()] = nodeType
}

// Clear removes every registered node type.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeTypes = make(map[string]protocol.NodeType)
	r.order = make([]string, 0)
}

// Get returns the node type registered under typeID.
func (r *Registry) Get(typeID string) (protocol.NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodeType, ok := r.nodeTypes[typeID]

	return nodeType, ok
}

// Len returns the number of registered node types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Available returns every registered node type.
func (r *Registry) Available() []protocol.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]protocol.NodeType, 0, len(r.order))
	for _, id := range r.order {
		types = append(types, r.nodeTypes[id])
	}

	return types
}

// ListByCategory returns the node types of one category.
func (r *Registry) ListByCategory(category models.Category) []protocol.NodeType {
	types := make([]protocol.NodeType, 0)

	for _, nodeType := range r.Available() {
		if nodeType.Category() == category {
			types = append(types, nodeType)
		}
	}

	return types
}

// ListCategories derives the categories in use from the registered types.
func (r *Registry) ListCategories() []models.Category {
	seen := make(map[models.Category]struct{})
	categories := make([]models.Category, 0)

	for _, nodeType := range r.Available() {
		if _, ok := seen[nodeType.Category()]; ok {
			continue
		}

		seen[nodeType.Category()] = struct{}{}
		categories = append(categories, nodeType.Category())
	}

	return categories
}

func (r *Registry) lookup(typeID string) (protocol.NodeType, error) {
	if r.Len() == 0 {
		return nil, ErrRegistryNotPopulated
	}

	nodeType, ok := r.Get(typeID)
	if !ok {
		return nil, &UnknownTypeError{TypeID: typeID}
	}

	return nodeType, nil
}

// Instantiate creates a node of the given type. overrides may be nil to start
// from the type's default data.
func (r *Registry) Instantiate(typeID, id string, position models.Position, overrides models.NodeData) (*models.Node, error) {
	nodeType, err := r.lookup(typeID)
	if err != nil {
		return nil, err
	}

	node, err := nodeType.Create(id, position, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s node %s: %w", typeID, id, err)
	}

	return node, nil
}

// DecodeData decodes a persisted data object for the given type.
func (r *Registry) DecodeData(typeID string, raw json.RawMessage) (models.NodeData, error) {
	nodeType, err := r.lookup(typeID)
	if err != nil {
		return nil, err
	}

	return nodeType.DecodeData(raw)
}

// HealthCheck reports whether the catalog is populated.
func (r *Registry) HealthCheck() (string, bool) {
	count := r.Len()
	if count == 0 {
		return "Node type registry is empty", false
	}

	return "Node type registry has " + strconv.Itoa(count) + " node types", true
}
