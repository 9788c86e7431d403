package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations. Nodes and
// edges are stored as JSONB next to the workflow metadata.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger, now: time.Now}
}

const selectWorkflow = `
	SELECT
		id
	  , name
	  , description
	  , version
	  , nodes
	  , edges
	  , created_at
	  , updated_at
	FROM workflows
`

// sortColumns maps allowlisted sort fields to columns. Only these strings
// ever reach the ORDER BY clause.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

func (r *WorkflowRepository) buildListQuery(opts persistence.ListWorkflowsOptions) (string, []any, error) {
	opts, err := persistence.NormalizeListOptions(opts)
	if err != nil {
		return "", nil, err
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	query := selectWorkflow + " ORDER BY " + column + " " + direction + ", id " + direction + " LIMIT $1 OFFSET $2"

	return query, []any{opts.Limit, opts.Offset}, nil
}

// ListWorkflows returns one page of workflows sorted by the database.
func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	query, args, err := r.buildListQuery(opts)
	if err != nil {
		return nil, err
	}

	var total int64

	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workflows").Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	docs := make([]*document.Document, 0)

	for rows.Next() {
		doc, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		docs = append(docs, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	offset := args[1].(int)

	return &persistence.WorkflowListResult{
		Workflows:   docs,
		TotalCount:  total,
		HasNextPage: int64(offset+len(docs)) < total,
	}, nil
}

// GetByID returns one workflow.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*document.Document, error) {
	row := r.db.QueryRowContext(ctx, selectWorkflow+" WHERE id = $1", id)

	doc, err := r.scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return doc, nil
}

// Save inserts or replaces a workflow.
func (r *WorkflowRepository) Save(ctx context.Context, doc *document.Document) error {
	err := persistence.Stamp(doc, r.now())
	if err != nil {
		return err
	}

	nodesJSON, err := json.Marshal(nonNilNodes(doc.Nodes))
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(nonNilEdges(doc.Edges))
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, description, version, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			version = EXCLUDED.version,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		doc.ID,
		doc.Name,
		doc.Description,
		doc.Version,
		nodesJSON,
		edgesJSON,
		*doc.CreatedAt,
		*doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

// Delete removes a workflow.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// IDsByNodeType returns the ids of workflows containing a node of typeID.
func (r *WorkflowRepository) IDsByNodeType(ctx context.Context, typeID string) ([]string, error) {
	filter, err := json.Marshal([]map[string]string{{"type": typeID}})
	if err != nil {
		return nil, fmt.Errorf("failed to build node type filter: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM workflows WHERE nodes @> $1::jsonb ORDER BY id`, string(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows by node type: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	ids := make([]string, 0)

	for rows.Next() {
		var id string

		err := rows.Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *WorkflowRepository) scanWorkflow(scanner interface {
	Scan(dest ...any) error
}) (*document.Document, error) {
	var (
		doc                  document.Document
		nodesJSON, edgesJSON []byte
		createdAt, updatedAt time.Time
	)

	err := scanner.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Description,
		&doc.Version,
		&nodesJSON,
		&edgesJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(nodesJSON, &doc.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	err = json.Unmarshal(edgesJSON, &doc.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	createdAt = createdAt.UTC()
	updatedAt = updatedAt.UTC()
	doc.CreatedAt = &createdAt
	doc.UpdatedAt = &updatedAt

	return &doc, nil
}

func nonNilNodes(nodes []document.NodeDocument) []document.NodeDocument {
	if nodes == nil {
		return []document.NodeDocument{}
	}

	return nodes
}

func nonNilEdges(edges []document.EdgeDocument) []document.EdgeDocument {
	if edges == nil {
		return []document.EdgeDocument{}
	}

	return edges
}
