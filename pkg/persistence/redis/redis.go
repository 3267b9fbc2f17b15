// Package redis provides Redis persistence for workflow definitions: one JSON
// value per workflow plus a sorted-set index ordered by creation date.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/atelier/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "atelier"

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client       goredis.UniversalClient
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
}

// NewPersistence connects to the Redis server described by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{
		client:       client,
		logger:       logger,
		workflowRepo: NewWorkflowRepository(client, logger, defaultKeyPrefix),
	}
}

// WorkflowRepository returns the Redis workflow repository.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Close closes the client.
func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
