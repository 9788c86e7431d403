package graph

import (
	"fmt"
	"strings"

	"github.com/genagent/agentflow/pkg/models"
)

// SchemaMode selects whether handle schemas take part in connection checks.
type SchemaMode int

const (
	// SchemaModePermissive accepts a connection on compatibility tags alone.
	SchemaModePermissive SchemaMode = iota

	// SchemaModeStrict also validates the schemas when both handles carry one.
	SchemaModeStrict
)

// ParseSchemaMode maps "strict" and "permissive" to a mode.
func ParseSchemaMode(s string) (SchemaMode, error) {
	switch strings.ToLower(s) {
	case "", "permissive":
		return SchemaModePermissive, nil
	case "strict":
		return SchemaModeStrict, nil
	default:
		return SchemaModePermissive, fmt.Errorf("unknown schema mode %q", s)
	}
}

func (m SchemaMode) String() string {
	if m == SchemaModeStrict {
		return "strict"
	}

	return "permissive"
}

// Verdict is the outcome of a connection check.
type Verdict struct {
	Accepted     bool     `json:"accepted"`
	Reason       string   `json:"reason,omitempty"`
	SchemaErrors []string `json:"schema_errors,omitempty"`

	err error
}

// Err returns the rejection as an error, or nil when accepted.
func (v Verdict) Err() error {
	return v.err
}

func accept() Verdict {
	return Verdict{Accepted: true}
}

func reject(source, target models.HandleRef, err error, detail string) Verdict {
	rejection := &ConnectionRejectedError{
		Source: source.String(),
		Target: target.String(),
		Err:    err,
		Detail: detail,
	}

	return Verdict{Accepted: false, Reason: rejection.Error(), err: rejection}
}

// Checker decides whether two handles may be connected.
type Checker struct {
	mode SchemaMode
}

func NewChecker(mode SchemaMode) *Checker {
	return &Checker{mode: mode}
}

func (c *Checker) Mode() SchemaMode {
	return c.mode
}

// CanConnect checks a proposed edge against the nodes of g. It never changes g.
func (c *Checker) CanConnect(g *Graph, source, target models.HandleRef) Verdict {
	sourceHandle, targetHandle, verdict := resolveHandles(g, source, target)
	if !verdict.Accepted {
		return verdict
	}

	for _, existing := range g.edges {
		if existing.SourceRef() == source && existing.TargetRef() == target {
			return reject(source, target, ErrDuplicateEdge, "")
		}
	}

	return c.compatible(source, target, sourceHandle, targetHandle)
}

// Recheck reports whether an edge already in g is still legal under the
// current handles of its nodes.
func (c *Checker) Recheck(g *Graph, edge models.Edge) Verdict {
	source, target := edge.SourceRef(), edge.TargetRef()

	sourceHandle, targetHandle, verdict := resolveHandles(g, source, target)
	if !verdict.Accepted {
		return verdict
	}

	return c.compatible(source, target, sourceHandle, targetHandle)
}

func (c *Checker) compatible(source, target models.HandleRef, sourceHandle, targetHandle models.Handle) Verdict {
	if !models.TagsCompatible(sourceHandle.Compatibility, targetHandle.Compatibility) {
		return reject(source, target, ErrIncompatibleHandles, string(sourceHandle.Compatibility)+" -> "+string(targetHandle.Compatibility))
	}

	if c.mode == SchemaModeStrict && len(sourceHandle.Schema) > 0 && len(targetHandle.Schema) > 0 {
		result := models.ValidateSchemaCompatibility(sourceHandle.Schema, targetHandle.Schema)
		if !result.IsValid {
			verdict := reject(source, target, ErrSchemaMismatch, strings.Join(result.Errors, "; "))
			verdict.SchemaErrors = result.Errors

			return verdict
		}
	}

	return accept()
}

func resolveHandles(g *Graph, source, target models.HandleRef) (models.Handle, models.Handle, Verdict) {
	var none models.Handle

	sourceNode, ok := g.Node(source.NodeID)
	if !ok {
		return none, none, reject(source, target, ErrSourceNodeNotFound, "")
	}

	targetNode, ok := g.Node(target.NodeID)
	if !ok {
		return none, none, reject(source, target, ErrTargetNodeNotFound, "")
	}

	sourceHandle, ok := sourceNode.Handle(source.HandleID)
	if !ok {
		return none, none, reject(source, target, ErrSourceHandleNotFound, "")
	}

	targetHandle, ok := targetNode.Handle(target.HandleID)
	if !ok {
		return none, none, reject(source, target, ErrTargetHandleNotFound, "")
	}

	if sourceHandle.Direction != models.HandleSource {
		return none, none, reject(source, target, ErrInvalidHandleDirection, "source handle "+sourceHandle.ID+" is a "+string(sourceHandle.Direction))
	}

	if targetHandle.Direction != models.HandleTarget {
		return none, none, reject(source, target, ErrInvalidHandleDirection, "target handle "+targetHandle.ID+" is a "+string(targetHandle.Direction))
	}

	return sourceHandle, targetHandle, accept()
}
