package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// createScript stores the document and indexes it in one step, or does
// nothing when the document already exists.
var createScript = goredis.NewScript(`
if redis.call("SET", KEYS[1], ARGV[1], "NX") then
	redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
	return 1
end
return 0
`)

// WorkflowRepository stores workflows under <prefix>:workflow:<id> and keeps
// their ids in the <prefix>:workflows sorted set.
type WorkflowRepository struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
	now    func() time.Time
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(client goredis.UniversalClient, logger *slog.Logger, prefix string) *WorkflowRepository {
	return &WorkflowRepository{client: client, logger: logger, prefix: prefix, now: time.Now}
}

func (r *WorkflowRepository) workflowKey(id string) string {
	return r.prefix + ":workflow:" + id
}

func (r *WorkflowRepository) indexKey() string {
	return r.prefix + ":workflows"
}

// List loads every indexed workflow and filters, sorts, and paginates in memory.
func (r *WorkflowRepository) List(ctx context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow index: %w", err)
	}

	if len(ids) == 0 {
		return opts.ApplyInMemory(nil), nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.workflowKey(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	records := make([]*models.WorkflowRecord, 0, len(values))

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index entry without a document; the document was removed outside this repository.
			r.logger.WarnContext(ctx, "workflow index entry without document", "workflow_id", ids[i])

			continue
		}

		record, err := decode([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode workflow %s: %w", ids[i], err)
		}

		records = append(records, record)
	}

	return opts.ApplyInMemory(records), nil
}

// GetByID returns the workflow or (nil, nil) when it does not exist.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRecord, error) {
	raw, err := r.client.Get(ctx, r.workflowKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	record, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return record, nil
}

// Create stores a new workflow. An existing id is rejected atomically.
func (r *WorkflowRepository) Create(ctx context.Context, record *models.WorkflowRecord) (*models.WorkflowRecord, error) {
	if record == nil {
		return nil, errors.New("workflow record is nil")
	}

	created := persistence.PrepareForCreate(record, r.now().UTC())

	data, err := json.Marshal(created)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow %s: %w", created.ID, err)
	}

	stored, err := createScript.Run(ctx, r.client,
		[]string{r.workflowKey(created.ID), r.indexKey()},
		data, created.CreatedDate.UnixMilli(), created.ID,
	).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to store workflow %s: %w", created.ID, err)
	}

	if stored == 0 {
		return nil, persistence.NewWorkflowError("Create", created.ID, persistence.ErrWorkflowAlreadyExists)
	}

	return created.Clone(), nil
}

// Update overwrites an existing workflow.
func (r *WorkflowRepository) Update(ctx context.Context, record *models.WorkflowRecord) error {
	if record == nil {
		return errors.New("workflow record is nil")
	}

	updated := record.Clone()
	if updated.LastModified.IsZero() {
		updated.LastModified = r.now().UTC()
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", record.ID, err)
	}

	stored, err := r.client.SetXX(ctx, r.workflowKey(record.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update workflow %s: %w", record.ID, err)
	}

	if !stored {
		return persistence.NewWorkflowError("Update", record.ID, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// Delete removes the workflow and its index entry. Missing workflows are not an error.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.workflowKey(id))
		pipe.ZRem(ctx, r.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func decode(raw []byte) (*models.WorkflowRecord, error) {
	var record models.WorkflowRecord

	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}

	return &record, nil
}
