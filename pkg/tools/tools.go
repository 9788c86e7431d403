// Package tools executes test calls for tool nodes: API calls run in process,
// the other tool kinds are forwarded to a remote runner.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/genagent/agentflow/pkg/models"
)

// Kind names a testable tool.
type Kind string

const (
	KindAPI           Kind = "api"
	KindPython        Kind = "python"
	KindKnowledgeBase Kind = "knowledge_base"
	KindSlack         Kind = "slack"
	KindZendesk       Kind = "zendesk"
)

var (
	ErrUnknownKind           = errors.New("unknown tool kind")
	ErrExecutorNotConfigured = errors.New("tool executor not configured")
	ErrInvalidConfig         = errors.New("invalid tool configuration")
	ErrHTTPServerError       = errors.New("server error during tool call")
	ErrResponseTooLarge      = errors.New("tool response too large")
)

// DefaultMaxResponseSize caps how much of a tool response body is read.
const DefaultMaxResponseSize int64 = 4 << 20

// readBody reads at most limit bytes of r and fails when there is more.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}

	return body, nil
}

var kindsByNodeType = map[string]Kind{
	models.NodeTypeAPITool:       KindAPI,
	models.NodeTypePythonCode:    KindPython,
	models.NodeTypeKnowledgeBase: KindKnowledgeBase,
	models.NodeTypeSlackMessage:  KindSlack,
	models.NodeTypeZendeskTicket: KindZendesk,
}

// ParseKind accepts a kind name or the node type id of a testable node.
func ParseKind(value string) (Kind, error) {
	if kind, ok := kindsByNodeType[value]; ok {
		return kind, nil
	}

	for _, kind := range kindsByNodeType {
		if string(kind) == value {
			return kind, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownKind, value)
}

// NodeType returns the node type id tested by kind.
func (k Kind) NodeType() string {
	for typeID, kind := range kindsByNodeType {
		if kind == k {
			return typeID
		}
	}

	return ""
}

// Kinds lists every testable kind in lexical order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindsByNodeType))
	for _, kind := range kindsByNodeType {
		kinds = append(kinds, kind)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	return kinds
}

// Request is one test call: the node configuration as stored in the
// workflow document plus the values supplied for its inputs.
type Request struct {
	Kind   Kind            `json:"kind"`
	Config json.RawMessage `json:"node_config"`
	Inputs map[string]any  `json:"inputs"`
}

// Result is what a tool returned.
type Result struct {
	Status  int               `json:"status"`
	Data    any               `json:"data"`
	Headers map[string]string `json:"headers,omitempty"`
}

type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// Router sends each request to the executor registered for its kind.
type Router struct {
	executors map[Kind]Executor
}

func NewRouter() *Router {
	return &Router{executors: make(map[Kind]Executor)}
}

// Register binds executor to kinds, replacing earlier bindings.
func (r *Router) Register(executor Executor, kinds ...Kind) *Router {
	for _, kind := range kinds {
		r.executors[kind] = executor
	}

	return r
}

func (r *Router) Execute(ctx context.Context, req Request) (*Result, error) {
	executor, ok := r.executors[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExecutorNotConfigured, req.Kind)
	}

	return executor.Execute(ctx, req)
}

// StringValues renders inputs as substitution values. Strings are used as
// is and everything else is JSON encoded.
func StringValues(inputs map[string]any) map[string]string {
	values := make(map[string]string, len(inputs))

	for name, value := range inputs {
		switch v := value.(type) {
		case string:
			values[name] = v
		case nil:
			values[name] = ""
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				values[name] = fmt.Sprintf("%v", v)

				continue
			}

			values[name] = string(encoded)
		}
	}

	return values
}
