package models

// Category groups node types in the catalog.
type Category string

const (
	CategoryInput   Category = "input"
	CategoryProcess Category = "process"
	CategoryOutput  Category = "output"
	CategoryConfig  Category = "config"
	CategoryTools   Category = "tools"
)

// Built-in node types.
const (
	NodeTypeChatInput     = "chatInputNode"
	NodeTypeChatOutput    = "chatOutputNode"
	NodeTypeSlackMessage  = "slackMessageNode"
	NodeTypeZendeskTicket = "zendeskTicketNode"
	NodeTypeAPITool       = "apiToolNode"
	NodeTypeKnowledgeBase = "knowledgeBaseNode"
	NodeTypePythonCode    = "pythonCodeNode"
	NodeTypeLLMModel      = "llmModelNode"
	NodeTypePrompt        = "promptNode"
	NodeTypeAgent         = "agentNode"
)

// Position is the canvas location of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a node instance inside a workflow graph.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Selected bool     `json:"selected,omitempty"`
	Dragging bool     `json:"dragging,omitempty"`
}

// Handles returns the node's declared handles.
func (n *Node) Handles() []Handle {
	if n == nil || n.Data == nil {
		return nil
	}

	return n.Data.Base().Handlers
}

// Handle looks up one of the node's handles by id.
func (n *Node) Handle(id string) (Handle, bool) {
	return FindHandle(n.Handles(), id)
}

// Edge connects a source handle of one node to a target handle of another.
type Edge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	SourceHandle string         `json:"sourceHandle"`
	Target       string         `json:"target"`
	TargetHandle string         `json:"targetHandle"`
	Data         map[string]any `json:"data,omitempty"`
	Selected     bool           `json:"selected,omitempty"`
}

// SourceRef returns the reference to the edge's source handle.
func (e Edge) SourceRef() HandleRef {
	return HandleRef{NodeID: e.Source, HandleID: e.SourceHandle}
}

// TargetRef returns the reference to the edge's target handle.
func (e Edge) TargetRef() HandleRef {
	return HandleRef{NodeID: e.Target, HandleID: e.TargetHandle}
}

// References reports whether the edge touches the given node.
func (e Edge) References(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// SameEndpoints reports whether both edges join the same pair of handles.
func (e Edge) SameEndpoints(other Edge) bool {
	return e.Source == other.Source &&
		e.SourceHandle == other.SourceHandle &&
		e.Target == other.Target &&
		e.TargetHandle == other.TargetHandle
}

// MakeEdgeID derives an edge id from its two handle references.
func MakeEdgeID(source, target HandleRef) string {
	return "edge-" + source.String() + "-" + target.String()
}
