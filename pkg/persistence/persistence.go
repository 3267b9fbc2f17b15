// Package persistence provides the storage abstraction for saved workflow definitions.
package persistence

import (
	"context"

	"github.com/dukex/atelier/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow records. GetByID returns (nil, nil) when
// the workflow does not exist.
type WorkflowRepository interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowRecord, error)
	Create(ctx context.Context, record *models.WorkflowRecord) (*models.WorkflowRecord, error)
	Update(ctx context.Context, record *models.WorkflowRecord) error
	Delete(ctx context.Context, id string) error
}
