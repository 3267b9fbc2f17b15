package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/persistence"
)

const workflowColumns = `
			id
		  , name
		  , description
		  , category
		  , status
		  , steps
		  , triggers
		  , created_by
		  , created_date
		  , last_modified
		  , execution_count
		  , average_execution_time
		  , success_rate
`

// sortColumns maps list sort fields to columns. Only these are ever interpolated.
var sortColumns = map[string]string{
	persistence.SortByCreatedDate:  "created_date",
	persistence.SortByLastModified: "last_modified",
	persistence.SortByName:         "name",
}

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger, now: time.Now}
}

// List returns paginated and filtered workflows.
func (r *WorkflowRepository) List(ctx context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	query, countQuery, args, err := r.buildListQuery(opts)
	if err != nil {
		return nil, err
	}

	opts, _ = opts.Normalize()

	var total int64

	err = r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count workflows: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	workflows := make([]*models.WorkflowRecord, 0)

	for rows.Next() {
		record, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return &persistence.ListResult{
		Workflows:   workflows,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(workflows)) < total,
	}, nil
}

// buildListQuery returns the page query, the count query, and the filter
// arguments shared by both. The page query expects limit and offset appended.
func (r *WorkflowRepository) buildListQuery(opts persistence.ListOptions) (string, string, []any, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return "", "", nil, err
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		return "", "", nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	conditions := []string{"deleted_at IS NULL"}
	args := make([]any, 0, 3)

	if opts.Category != "" {
		args = append(args, opts.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if opts.CreatedBy != "" {
		args = append(args, opts.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")
	direction := "DESC"

	if opts.SortOrder == persistence.SortOrderAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM workflows WHERE %s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d",
		workflowColumns, where, column, direction, direction, len(args)+1, len(args)+2,
	)
	countQuery := "SELECT COUNT(*) FROM workflows WHERE " + where

	return query, countQuery, args, nil
}

// GetByID returns the workflow or (nil, nil) when it does not exist or was deleted.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRecord, error) {
	query := "SELECT " + workflowColumns + " FROM workflows WHERE id = $1 AND deleted_at IS NULL"

	record, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return record, nil
}

// Create inserts a workflow. A soft-deleted row with the same id is replaced.
func (r *WorkflowRepository) Create(ctx context.Context, record *models.WorkflowRecord) (*models.WorkflowRecord, error) {
	if record == nil {
		return nil, errors.New("workflow record is nil")
	}

	created := persistence.PrepareForCreate(record, r.now().UTC())

	stepsJSON, triggersJSON, err := marshalGraph(created)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO workflows (id, name, description, category, status, steps, triggers, created_by,
			created_date, last_modified, execution_count, average_execution_time, success_rate, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			steps = EXCLUDED.steps,
			triggers = EXCLUDED.triggers,
			created_by = EXCLUDED.created_by,
			created_date = EXCLUDED.created_date,
			last_modified = EXCLUDED.last_modified,
			execution_count = EXCLUDED.execution_count,
			average_execution_time = EXCLUDED.average_execution_time,
			success_rate = EXCLUDED.success_rate,
			deleted_at = NULL
		WHERE workflows.deleted_at IS NOT NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		created.ID,
		created.Name,
		created.Description,
		created.Category,
		created.Status,
		stepsJSON,
		triggersJSON,
		created.CreatedBy,
		created.CreatedDate,
		created.LastModified,
		created.ExecutionCount,
		created.AverageExecutionTime,
		created.SuccessRate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert workflow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, persistence.NewWorkflowError("Create", created.ID, persistence.ErrWorkflowAlreadyExists)
	}

	return created, nil
}

// Update overwrites a live workflow. The creation columns are left untouched.
func (r *WorkflowRepository) Update(ctx context.Context, record *models.WorkflowRecord) error {
	if record == nil {
		return errors.New("workflow record is nil")
	}

	lastModified := record.LastModified
	if lastModified.IsZero() {
		lastModified = r.now().UTC()
	}

	stepsJSON, triggersJSON, err := marshalGraph(record)
	if err != nil {
		return err
	}

	query := `
		UPDATE workflows SET
			name = $2,
			description = $3,
			category = $4,
			status = $5,
			steps = $6,
			triggers = $7,
			last_modified = $8,
			execution_count = $9,
			average_execution_time = $10,
			success_rate = $11
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Name,
		record.Description,
		record.Category,
		record.Status,
		stepsJSON,
		triggersJSON,
		lastModified,
		record.ExecutionCount,
		record.AverageExecutionTime,
		record.SuccessRate,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("Update", record.ID, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	// Workflow doesn't exist or already deleted - this is not an error
	return nil
}

func marshalGraph(record *models.WorkflowRecord) ([]byte, []byte, error) {
	steps := record.Steps
	if steps == nil {
		steps = []*models.Step{}
	}

	triggers := record.Triggers
	if triggers == nil {
		triggers = []*models.Trigger{}
	}

	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal steps: %w", err)
	}

	triggersJSON, err := json.Marshal(triggers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal triggers: %w", err)
	}

	return stepsJSON, triggersJSON, nil
}

func (r *WorkflowRepository) scanWorkflow(scanner interface {
	Scan(dest ...any) error
}) (*models.WorkflowRecord, error) {
	var (
		record                  models.WorkflowRecord
		stepsJSON, triggersJSON []byte
	)

	err := scanner.Scan(
		&record.ID,
		&record.Name,
		&record.Description,
		&record.Category,
		&record.Status,
		&stepsJSON,
		&triggersJSON,
		&record.CreatedBy,
		&record.CreatedDate,
		&record.LastModified,
		&record.ExecutionCount,
		&record.AverageExecutionTime,
		&record.SuccessRate,
	)
	if err != nil {
		return nil, err
	}

	record.Steps = []*models.Step{}
	if err := json.Unmarshal(stepsJSON, &record.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}

	record.Triggers = []*models.Trigger{}
	if err := json.Unmarshal(triggersJSON, &record.Triggers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal triggers: %w", err)
	}

	record.CreatedDate = record.CreatedDate.UTC()
	record.LastModified = record.LastModified.UTC()

	return &record, nil
}
