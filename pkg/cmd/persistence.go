// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/atelier/pkg/persistence"
	"github.com/dukex/atelier/pkg/persistence/file"
	"github.com/dukex/atelier/pkg/persistence/postgresql"
	"github.com/dukex/atelier/pkg/persistence/redis"
)

const (
	ProviderFile       = "file"
	ProviderPostgreSQL = "postgresql"
	ProviderRedis      = "redis"
)

// ParsePersistenceProvider picks the backend from the URL scheme. URLs
// without a known scheme are treated as file paths.
func ParsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ProviderFile
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return ProviderPostgreSQL
	case "redis", "rediss":
		return ProviderRedis
	default:
		return ProviderFile
	}
}

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := ParsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Initializing persistence", "provider", provider)

	switch provider {
	case ProviderPostgreSQL:
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgresql persistence: %w", err)
		}

		return p, nil
	case ProviderRedis:
		p, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}
