package services

import (
	"errors"
	"fmt"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

// ValidationReport is the outcome of loading a document into a graph.
type ValidationReport struct {
	Valid        bool                   `json:"valid"`
	Errors       []string               `json:"errors"`
	SkippedNodes []document.SkippedItem `json:"skipped_nodes"`
	SkippedEdges []document.SkippedItem `json:"skipped_edges"`
}

// Problems flattens the report into one message per problem.
func (r *ValidationReport) Problems() []string {
	problems := make([]string, 0, len(r.Errors)+len(r.SkippedNodes)+len(r.SkippedEdges))
	problems = append(problems, r.Errors...)

	for _, item := range r.SkippedNodes {
		problems = append(problems, fmt.Sprintf("node %s: %s", item.ID, item.Reason))
	}

	for _, item := range r.SkippedEdges {
		problems = append(problems, fmt.Sprintf("edge %s: %s", item.ID, item.Reason))
	}

	return problems
}

// Validate checks the document fields, loads it through the node type
// catalog, and runs the graph invariants. Problems end up in the report; an
// error means the check itself could not run.
func (w *Workflow) Validate(doc *document.Document) (*ValidationReport, error) {
	if doc == nil {
		return nil, ErrWorkflowNil
	}

	report := &ValidationReport{
		Errors:       make([]string, 0),
		SkippedNodes: make([]document.SkippedItem, 0),
		SkippedEdges: make([]document.SkippedItem, 0),
	}

	err := w.validate.Struct(doc)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("failed to validate workflow: %w", err)
		}

		for _, fieldErr := range fieldErrs {
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s failed on the '%s' rule", fieldErr.Namespace(), fieldErr.Tag()))
		}
	}

	g, load, err := document.Deserialize(doc, w.catalog, graph.WithChecker(w.checker))
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}

	report.SkippedNodes = append(report.SkippedNodes, load.SkippedNodes...)
	report.SkippedEdges = append(report.SkippedEdges, load.SkippedEdges...)
	report.Errors = append(report.Errors, splitJoined(g.Validate())...)

	report.Valid = len(report.Errors) == 0 && len(report.SkippedNodes) == 0 && len(report.SkippedEdges) == 0

	return report, nil
}

func splitJoined(err error) []string {
	if err == nil {
		return nil
	}

	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}

	messages := make([]string, 0)
	for _, e := range joined.Unwrap() {
		messages = append(messages, e.Error())
	}

	return messages
}

// CheckConnection loads doc and asks whether source may be connected to
// target. Nothing is stored.
func (w *Workflow) CheckConnection(doc *document.Document, source, target models.HandleRef) (graph.Verdict, *document.LoadReport, error) {
	if doc == nil {
		return graph.Verdict{}, nil, ErrWorkflowNil
	}

	g, load, err := document.Deserialize(doc, w.catalog, graph.WithChecker(w.checker))
	if err != nil {
		return graph.Verdict{}, nil, fmt.Errorf("failed to load workflow: %w", err)
	}

	return g.CanConnect(source, target), load, nil
}
