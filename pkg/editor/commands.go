package editor

import (
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
)

// Command is a mutation a node asks the session to apply to the graph.
type Command interface {
	apply(g *graph.Graph) (Outcome, error)
}

// Outcome reports the side effects of a command.
type Outcome struct {
	RemovedEdges []models.Edge
}

// UpdateNodeData shallow-merges Patch into the node's data.
type UpdateNodeData struct {
	NodeID string
	Patch  map[string]any
}

func (c UpdateNodeData) apply(g *graph.Graph) (Outcome, error) {
	removed, err := g.UpdateNodeData(c.NodeID, c.Patch)

	return Outcome{RemovedEdges: removed}, err
}

// RemoveNode deletes the node and its edges.
type RemoveNode struct {
	NodeID string
}

func (c RemoveNode) apply(g *graph.Graph) (Outcome, error) {
	removed, err := g.RemoveNode(c.NodeID)

	return Outcome{RemovedEdges: removed}, err
}

// MoveNode changes the node's canvas position.
type MoveNode struct {
	NodeID   string
	Position models.Position
}

func (c MoveNode) apply(g *graph.Graph) (Outcome, error) {
	return Outcome{}, g.MoveNode(c.NodeID, c.Position)
}

// NodeHandle lets a node instance request changes to itself. Handles are
// bound to a session and are never part of a saved document.
type NodeHandle struct {
	session *Session
	nodeID  string
}

func (h NodeHandle) NodeID() string {
	return h.nodeID
}

func (h NodeHandle) Update(patch map[string]any) (Outcome, error) {
	return h.session.Dispatch(UpdateNodeData{NodeID: h.nodeID, Patch: patch})
}

func (h NodeHandle) Move(position models.Position) error {
	_, err := h.session.Dispatch(MoveNode{NodeID: h.nodeID, Position: position})

	return err
}

func (h NodeHandle) Remove() (Outcome, error) {
	return h.session.Dispatch(RemoveNode{NodeID: h.nodeID})
}
