package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/eventbus"
	"github.com/genagent/agentflow/pkg/events"
	"github.com/genagent/agentflow/pkg/graph"
	"github.com/genagent/agentflow/pkg/otelhelper"
	"github.com/genagent/agentflow/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Workflow stores workflow documents after checking they load into a valid
// graph, and announces every change on the event bus.
type Workflow struct {
	persistence persistence.Persistence
	catalog     graph.Catalog
	checker     *graph.Checker
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	validate    *validator.Validate
}

type WorkflowOption func(*Workflow)

// WithEventPublisher publishes lifecycle events after each mutation.
func WithEventPublisher(publisher eventbus.EventPublisher) WorkflowOption {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) WorkflowOption {
	return func(w *Workflow) {
		w.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) WorkflowOption {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithSchemaMode selects how strictly edges are checked during validation.
func WithSchemaMode(mode graph.SchemaMode) WorkflowOption {
	return func(w *Workflow) {
		w.checker = graph.NewChecker(mode)
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, catalog graph.Catalog, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		persistence: persistence,
		catalog:     catalog,
		checker:     graph.NewChecker(graph.SchemaModePermissive),
		tracer:      otelhelper.NoopTracer(),
		logger:      slog.Default(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.With("module", "workflow_service")

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []document.Summary `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// ListWorkflows retrieves workflow summaries with sorting and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	err := validateListWorkflowsRequest(&req)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := w.persistence.ListWorkflows(ctx, persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidSortField) {
			return nil, ErrInvalidSortField
		}

		if errors.Is(err, persistence.ErrInvalidSortOrder) {
			return nil, ErrInvalidSortOrder
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	summaries := make([]document.Summary, 0, len(result.Workflows))
	for _, doc := range result.Workflows {
		summaries = append(summaries, doc.Summary())
	}

	return &ListWorkflowsResponse{
		Workflows:   summaries,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

func validateListWorkflowsRequest(req *ListWorkflowsRequest) error {
	if req.Limit <= 0 {
		req.Limit = persistence.DefaultListLimit
	}

	if req.Limit > persistence.MaxListLimit {
		req.Limit = persistence.MaxListLimit
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "name"}

	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	return nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*document.Document, error) {
	doc, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, ErrWorkflowNotFound
	}

	return doc, nil
}

// Create stores a new workflow. The server assigns the id and timestamps;
// any supplied by the caller are discarded.
func (w *Workflow) Create(ctx context.Context, doc *document.Document) (*document.Document, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create")
	defer span.End()

	err := w.checkStorable("Create", doc)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	doc.ID = ""
	doc.CreatedAt = nil
	doc.UpdatedAt = nil

	err = w.persistence.SaveWorkflow(ctx, doc)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	span.SetAttributes(workflowAttributes(doc)...)

	w.publish(ctx, doc.ID, events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, doc.ID),
		Name:      doc.Name,
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
	})

	w.logger.InfoContext(ctx, "Workflow created", "workflow_id", doc.ID, "name", doc.Name)

	return doc, nil
}

// Update replaces an existing workflow, keeping its id and creation time.
func (w *Workflow) Update(ctx context.Context, workflowID string, doc *document.Document) (*document.Document, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.update",
		attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer span.End()

	err := w.checkStorable("Update", doc)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	doc.ID = workflowID
	doc.CreatedAt = existing.CreatedAt

	err = w.persistence.SaveWorkflow(ctx, doc)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	span.SetAttributes(workflowAttributes(doc)...)

	w.publish(ctx, doc.ID, events.WorkflowUpdated{
		BaseEvent: events.NewBaseEvent(events.WorkflowUpdatedEvent, doc.ID),
		Name:      doc.Name,
		NodeCount: len(doc.Nodes),
		EdgeCount: len(doc.Edges),
	})

	return doc, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.delete",
		attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer span.End()

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	err = w.persistence.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.publish(ctx, workflowID, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, workflowID),
		Name:      existing.Name,
	})

	return nil
}

// Import parses an uploaded document and stores it as a new workflow.
func (w *Workflow) Import(ctx context.Context, body []byte) (*document.Document, error) {
	doc, err := document.Parse(body)
	if err != nil {
		return nil, NewValidationError("Import", "MALFORMED_DOCUMENT", err.Error(), ErrInvalidRequest, parseDetails(err)...)
	}

	return w.Create(ctx, doc)
}

// Export returns a stored workflow encoded for download.
func (w *Workflow) Export(ctx context.Context, workflowID string) ([]byte, error) {
	doc, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return document.Encode(doc)
}

func (w *Workflow) checkStorable(op string, doc *document.Document) error {
	if doc == nil {
		return ErrWorkflowNil
	}

	if strings.TrimSpace(doc.Name) == "" {
		return NewValidationError(op, "NAME_REQUIRED", "workflow name is required", ErrWorkflowNameRequired)
	}

	if doc.Version == "" {
		doc.Version = graph.DefaultVersion
	}

	report, err := w.Validate(doc)
	if err != nil {
		return err
	}

	if !report.Valid {
		return NewValidationError(op, "INVALID_WORKFLOW", "workflow does not form a valid graph", ErrInvalidWorkflow, report.Problems()...)
	}

	return nil
}

func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	err := w.publisher.Publish(ctx, key, event)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish workflow event",
			"event_type", event.GetType(), "workflow_id", key, "error", err)
	}
}

func workflowAttributes(doc *document.Document) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(otelhelper.WorkflowIDKey, doc.ID),
		attribute.String(otelhelper.WorkflowNameKey, doc.Name),
		attribute.Int(otelhelper.NodeCountKey, len(doc.Nodes)),
		attribute.Int(otelhelper.EdgeCountKey, len(doc.Edges)),
	}
}

func parseDetails(err error) []string {
	var parseErr *document.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Details
	}

	return nil
}
