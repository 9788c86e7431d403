package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
	nodetools "github.com/genagent/agentflow/pkg/nodes/tools"
	"github.com/genagent/agentflow/pkg/otelhelper"
	"github.com/genagent/agentflow/pkg/tools"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NodeTester runs a single tool node outside of any workflow.
type NodeTester struct {
	catalog  graph.Catalog
	executor tools.Executor
	tracer   trace.Tracer
	logger   *slog.Logger
}

func NewNodeTester(catalog graph.Catalog, executor tools.Executor, tracer trace.Tracer, logger *slog.Logger) *NodeTester {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &NodeTester{
		catalog:  catalog,
		executor: executor,
		tracer:   tracer,
		logger:   logger.With("module", "node_tester"),
	}
}

// Test decodes config as the node data of kind, checks inputs against the
// node's input schema, and executes the tool.
func (n *NodeTester) Test(ctx context.Context, kind string, config json.RawMessage, inputs map[string]any) (*tools.Result, error) {
	toolKind, err := tools.ParseKind(kind)
	if err != nil {
		return nil, NewValidationError("Test", "UNKNOWN_TOOL_KIND", err.Error(), ErrUnknownToolKind)
	}

	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "node.test",
		attribute.String(otelhelper.ToolKindKey, string(toolKind)),
		attribute.String(otelhelper.NodeTypeKey, toolKind.NodeType()))
	defer span.End()

	data, err := n.catalog.DecodeData(toolKind.NodeType(), config)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError("Test", "INVALID_TOOL_CONFIG", err.Error(), ErrInvalidToolConfig)
	}

	if inputs == nil {
		inputs = map[string]any{}
	}

	err = checkInputs(inputSchemaOf(data), inputs)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	result, err := n.executor.Execute(ctx, tools.Request{
		Kind:   toolKind,
		Config: config,
		Inputs: inputs,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		if errors.Is(err, tools.ErrInvalidConfig) {
			return nil, NewValidationError("Test", "INVALID_TOOL_CONFIG", err.Error(), ErrInvalidToolConfig)
		}

		return nil, fmt.Errorf("failed to test %s tool: %w", toolKind, err)
	}

	n.logger.InfoContext(ctx, "Tool test completed", "kind", toolKind, "status", result.Status)

	return result, nil
}

// inputSchemaOf returns the schema test inputs must satisfy. API tools take
// one value per referenced variable.
func inputSchemaOf(data models.NodeData) models.NodeSchema {
	switch d := data.(type) {
	case *models.APIToolData:
		return nodetools.APIInputSchema(d)
	case models.ToolNodeData:
		return d.Tool().InputSchema
	default:
		return nil
	}
}

func checkInputs(schema models.NodeSchema, inputs map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.JSONSchema()),
		gojsonschema.NewGoLoader(inputs),
	)
	if err != nil {
		return NewValidationError("Test", "INVALID_INPUT_SCHEMA", err.Error(), ErrInvalidToolConfig)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		details = append(details, resultErr.String())
	}

	return NewValidationError("Test", "INVALID_TOOL_INPUTS", "inputs do not match the tool input schema", ErrInvalidToolInputs, details...)
}
