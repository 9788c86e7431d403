// Package protocol defines the interfaces and contracts for pluggable node types.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/genagent/agentflow/pkg/models"
)

// ErrDataMismatch is returned when node data does not belong to the node type.
var ErrDataMismatch = errors.New("node data does not match node type")

// NodeType describes one kind of node and creates instances of it.
type NodeType interface {
	// ID returns the unique type identifier, e.g. "chatInputNode"
	ID() string

	// Label returns the human-readable name shown in the catalog
	Label() string

	// Description returns a description of what this node does
	Description() string

	// Category returns the catalog group of this node type
	Category() models.Category

	// Icon returns the icon name used by the editor
	Icon() string

	// DefaultData returns a fresh copy of the data a new instance starts with
	DefaultData() models.NodeData

	// DecodeData decodes a persisted data object into this type's data variant
	DecodeData(raw json.RawMessage) (models.NodeData, error)

	// Create builds an instance from data, which may be nil for the defaults.
	// The structurally required handles are always present on the result.
	Create(id string, position models.Position, data models.NodeData) (*models.Node, error)
}
