package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genagent/agentflow/pkg/persistence"
	"github.com/genagent/agentflow/pkg/persistence/file"
	"github.com/genagent/agentflow/pkg/persistence/postgresql"
	"github.com/genagent/agentflow/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql", "redis", "rediss"}

// NewPersistence opens the store named by the scheme of databaseURL. A URL
// without a known scheme is treated as a file system path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Opening persistence", "provider", provider)

	switch provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgresql persistence: %w", err)
		}

		return p, nil
	case "redis", "rediss":
		p, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.SplitN(databaseURL, "://", 2)
	if len(parts) < 2 {
		return "file"
	}

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
