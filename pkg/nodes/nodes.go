// Package nodes holds helpers shared by the built-in node type factories.
package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/protocol"
)

// Decode unmarshals a persisted data object into a new T.
func Decode[T any](raw json.RawMessage) (*T, error) {
	data := new(T)
	if len(raw) == 0 {
		return data, nil
	}

	err := json.Unmarshal(raw, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode node data: %w", err)
	}

	return data, nil
}

// Prepare returns a private copy of data as *T, or a copy of the defaults when
// data is nil. The copy keeps the caller's value untouched by the factory.
func Prepare[T any](typeID string, data models.NodeData, defaults func() models.NodeData) (*T, error) {
	if data == nil {
		data = defaults()
	}

	typed, ok := any(data).(*T)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not accept %T", protocol.ErrDataMismatch, typeID, data)
	}

	return clone(typed)
}

// NewNode assembles a node instance.
func NewNode(typeID, id string, position models.Position, data models.NodeData) *models.Node {
	return &models.Node{
		ID:       id,
		Type:     typeID,
		Position: position,
		Data:     data,
	}
}

func clone[T any](src *T) (*T, error) {
	body, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("failed to copy node data: %w", err)
	}

	return Decode[T](body)
}
