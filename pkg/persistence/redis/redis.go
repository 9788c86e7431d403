// Package redis provides Redis persistence for workflow documents. Each
// workflow is a JSON string under <prefix>:workflow:<id>; the set
// <prefix>:workflows indexes the stored ids.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "agentflow"

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
	prefix string
	now    func() time.Time

	closeOnce sync.Once
}

type Option func(*Persistence)

// WithKeyPrefix namespaces every key written by the store.
func WithKeyPrefix(prefix string) Option {
	return func(p *Persistence) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// NewPersistence connects to the Redis server at databaseURL
// (redis://[user:password@]host:port/db) and pings it.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string, opts ...Option) (*Persistence, error) {
	options, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	p := NewPersistenceWithClient(redis.NewClient(options), logger, opts...)

	err = p.HealthCheck(ctx)
	if err != nil {
		_ = p.client.Close()

		return nil, err
	}

	return p, nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client redis.UniversalClient, logger *slog.Logger, opts ...Option) *Persistence {
	p := &Persistence{
		client: client,
		logger: logger.With("module", "redis_persistence"),
		prefix: defaultKeyPrefix,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Persistence) Close(_ context.Context) error {
	var err error

	p.closeOnce.Do(func() {
		err = p.client.Close()
	})

	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// ListWorkflows loads every indexed workflow and pages through them in memory.
func (p *Persistence) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	opts, err := persistence.NormalizeListOptions(opts)
	if err != nil {
		return nil, err
	}

	ids, err := p.client.SMembers(ctx, p.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow ids: %w", err)
	}

	docs := make([]*document.Document, 0, len(ids))

	if len(ids) > 0 {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, p.workflowKey(id))
		}

		values, err := p.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load workflows: %w", err)
		}

		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				p.logger.WarnContext(ctx, "Indexed workflow is missing", "workflow_id", ids[i])

				continue
			}

			doc, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to decode workflow %s: %w", ids[i], err)
			}

			docs = append(docs, doc)
		}
	}

	return persistence.SortAndPaginate(docs, opts), nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*document.Document, error) {
	raw, err := p.client.Get(ctx, p.workflowKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	doc, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return doc, nil
}

// SaveWorkflow stamps doc and writes it together with its index entry.
func (p *Persistence) SaveWorkflow(ctx context.Context, doc *document.Document) error {
	err := persistence.Stamp(doc, p.now())
	if err != nil {
		return err
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", doc.ID, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.workflowKey(doc.ID), payload, 0)
		pipe.SAdd(ctx, p.indexKey(), doc.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", doc.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, p.workflowKey(id))
		pipe.SRem(ctx, p.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (p *Persistence) workflowKey(id string) string {
	return p.prefix + ":workflow:" + id
}

func (p *Persistence) indexKey() string {
	return p.prefix + ":workflows"
}

func decode(raw string) (*document.Document, error) {
	var doc document.Document

	err := json.Unmarshal([]byte(raw), &doc)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}
