// Package persistence provides the storage abstraction for workflow documents.
package persistence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type Persistence interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	WorkflowByID(ctx context.Context, id string) (*document.Document, error)
	SaveWorkflow(ctx context.Context, doc *document.Document) error
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ListWorkflowsOptions controls paging and ordering of workflow listings.
type ListWorkflowsOptions struct {
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// WorkflowListResult is one page of workflows.
type WorkflowListResult struct {
	Workflows   []*document.Document
	TotalCount  int64
	HasNextPage bool
}

var allowedSorts = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// NormalizeListOptions applies defaults and checks the sort field and order
// against the allowlist.
func NormalizeListOptions(opts ListWorkflowsOptions) (ListWorkflowsOptions, error) {
	if opts.Limit <= 0 || opts.Limit > MaxListLimit {
		opts.Limit = DefaultListLimit
	}

	if opts.Offset < 0 {
		opts.Offset = 0
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	if !allowedSorts[opts.SortBy] {
		return opts, fmt.Errorf("%w: %s", ErrInvalidSortField, opts.SortBy)
	}

	if opts.SortOrder != "asc" && opts.SortOrder != "desc" {
		return opts, fmt.Errorf("%w: %s", ErrInvalidSortOrder, opts.SortOrder)
	}

	return opts, nil
}

// SortAndPaginate orders docs in memory and cuts one page out of them. It is
// used by stores that cannot sort on the server side. Ties are broken by id
// in the same direction, as the SQL store does.
func SortAndPaginate(docs []*document.Document, opts ListWorkflowsOptions) *WorkflowListResult {
	less := func(a, b *document.Document) bool {
		switch opts.SortBy {
		case "updated_at":
			at, bt := timeOf(a.UpdatedAt), timeOf(b.UpdatedAt)
			if !at.Equal(bt) {
				return at.Before(bt)
			}
		case "name":
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			at, bt := timeOf(a.CreatedAt), timeOf(b.CreatedAt)
			if !at.Equal(bt) {
				return at.Before(bt)
			}
		}

		return a.ID < b.ID
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if opts.SortOrder == "desc" {
			return less(docs[j], docs[i])
		}

		return less(docs[i], docs[j])
	})

	total := int64(len(docs))

	if opts.Offset >= len(docs) {
		return &WorkflowListResult{
			Workflows:   make([]*document.Document, 0),
			TotalCount:  total,
			HasNextPage: false,
		}
	}

	end := opts.Offset + opts.Limit
	if end > len(docs) {
		end = len(docs)
	}

	return &WorkflowListResult{
		Workflows:   docs[opts.Offset:end],
		TotalCount:  total,
		HasNextPage: end < len(docs),
	}
}

// Stamp prepares a document for storage: a missing id gets a UUIDv7, a
// missing creation time gets now, and the update time is always now. Times
// are kept at microsecond precision, the finest every store can hold.
func Stamp(doc *document.Document, now time.Time) error {
	if doc.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		doc.ID = id.String()
	}

	now = now.UTC().Truncate(time.Microsecond)

	if doc.CreatedAt == nil {
		created := now
		doc.CreatedAt = &created
	}

	doc.UpdatedAt = &now

	return nil
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}

	return *t
}
