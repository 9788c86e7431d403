// Package models defines the workflow graph data model: schemas, handles, node data and workflows.
package models

import "strings"

// HandleDirection tells whether a handle emits or receives a connection.
type HandleDirection string

const (
	HandleSource HandleDirection = "source"
	HandleTarget HandleDirection = "target"
)

// Compatibility is the coarse tag that governs which handles may connect.
type Compatibility string

const (
	CompatibilityText  Compatibility = "text"
	CompatibilityTools Compatibility = "tools"
	CompatibilityLLM   Compatibility = "llm"
	CompatibilityJSON  Compatibility = "json"
	CompatibilityAny   Compatibility = "any"
)

// Compatibilities lists every compatibility tag.
var Compatibilities = []Compatibility{
	CompatibilityText,
	CompatibilityTools,
	CompatibilityLLM,
	CompatibilityJSON,
	CompatibilityAny,
}

// Handle is a named attachment point on a node.
type Handle struct {
	ID            string          `json:"id"               validate:"required"`
	Direction     HandleDirection `json:"type"             validate:"required,oneof=source target"`
	Compatibility Compatibility   `json:"compatibility"    validate:"required,oneof=text tools llm json any"`
	Schema        NodeSchema      `json:"schema,omitempty"`
}

// SourceHandle creates an outgoing handle.
func SourceHandle(id string, compatibility Compatibility) Handle {
	return Handle{ID: id, Direction: HandleSource, Compatibility: compatibility}
}

// TargetHandle creates an incoming handle.
func TargetHandle(id string, compatibility Compatibility) Handle {
	return Handle{ID: id, Direction: HandleTarget, Compatibility: compatibility}
}

// WithSchema returns a copy of the handle carrying the given schema.
func (h Handle) WithSchema(schema NodeSchema) Handle {
	h.Schema = schema

	return h
}

// TagsCompatible reports whether two compatibility tags may be connected.
func TagsCompatible(source, target Compatibility) bool {
	return source == CompatibilityAny || target == CompatibilityAny || source == target
}

// HandleRef addresses one handle on one node.
type HandleRef struct {
	NodeID   string `json:"node_id"   validate:"required"`
	HandleID string `json:"handle_id" validate:"required"`
}

// String formats the reference as "{node_id}:{handle_id}".
func (r HandleRef) String() string {
	return MakeHandleRef(r.NodeID, r.HandleID)
}

// MakeHandleRef creates a handle reference string from node ID and handle ID.
func MakeHandleRef(nodeID, handleID string) string {
	return nodeID + ":" + handleID
}

// ParseHandleRef parses a reference in format "{node_id}:{handle_id}".
// Node IDs are UUIDs, so the first colon separates the two parts.
func ParseHandleRef(ref string) (HandleRef, bool) {
	nodeID, handleID, ok := strings.Cut(ref, ":")
	if !ok || nodeID == "" || handleID == "" {
		return HandleRef{}, false
	}

	return HandleRef{NodeID: nodeID, HandleID: handleID}, true
}

// FindHandle returns the handle with the given id.
func FindHandle(handles []Handle, id string) (Handle, bool) {
	for _, h := range handles {
		if h.ID == id {
			return h, true
		}
	}

	return Handle{}, false
}

// MergeHandles returns required followed by every extra handle whose id is not
// already taken. Required handles win on id collisions and are never dropped.
func MergeHandles(required []Handle, extra []Handle) []Handle {
	merged := make([]Handle, 0, len(required)+len(extra))
	seen := make(map[string]struct{}, len(required)+len(extra))

	for _, h := range required {
		if _, ok := seen[h.ID]; ok {
			continue
		}

		seen[h.ID] = struct{}{}
		merged = append(merged, h)
	}

	for _, h := range extra {
		if _, ok := seen[h.ID]; ok {
			continue
		}

		seen[h.ID] = struct{}{}
		merged = append(merged, h)
	}

	return merged
}
