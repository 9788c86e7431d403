// Package document is the transport-neutral JSON form of a workflow graph. It
// converts between documents and live graphs, compares documents for unsaved
// changes, and parses imported files.
package document

import (
	"encoding/json"
	"time"

	"github.com/genagent/agentflow/pkg/models"
)

// Document is a workflow as it is stored, exported and sent over the wire.
type Document struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"                 validate:"required"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Nodes       []NodeDocument `json:"nodes"                validate:"dive"`
	Edges       []EdgeDocument `json:"edges"                validate:"dive"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// NodeDocument is one node. Selected and Dragging are editor state that is
// carried through but never compared.
type NodeDocument struct {
	ID       string          `json:"id"                 validate:"required"`
	Type     string          `json:"type"               validate:"required"`
	Position models.Position `json:"position"`
	Data     json.RawMessage `json:"data"`
	Selected bool            `json:"selected,omitempty"`
	Dragging bool            `json:"dragging,omitempty"`
}

// EdgeDocument is one edge.
type EdgeDocument struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"         validate:"required"`
	Target       string         `json:"target"         validate:"required"`
	SourceHandle string         `json:"sourceHandle"   validate:"required"`
	TargetHandle string         `json:"targetHandle"   validate:"required"`
	Data         map[string]any `json:"data,omitempty"`
	Selected     bool           `json:"selected,omitempty"`
}

// Summary is the list view of a workflow.
type Summary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Version     string     `json:"version"`
	NodeCount   int        `json:"node_count"`
	EdgeCount   int        `json:"edge_count"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Summary describes the document without its nodes and edges.
func (d *Document) Summary() Summary {
	return Summary{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Version:     d.Version,
		NodeCount:   len(d.Nodes),
		EdgeCount:   len(d.Edges),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Copy returns a deep copy of the document.
func (d *Document) Copy() (*Document, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	var out Document

	err = json.Unmarshal(body, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// Encode renders the document as indented UTF-8 JSON for export.
func Encode(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func (e EdgeDocument) toEdge() models.Edge {
	return models.Edge{
		ID:           e.ID,
		Source:       e.Source,
		SourceHandle: e.SourceHandle,
		Target:       e.Target,
		TargetHandle: e.TargetHandle,
		Data:         e.Data,
		Selected:     e.Selected,
	}
}
