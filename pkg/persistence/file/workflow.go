package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/persistence"
)

var errInvalidWorkflowID = errors.New("invalid workflow id")

// WorkflowRepository stores one JSON document per workflow under <root>/workflows.
type WorkflowRepository struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root, now: time.Now}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %q", errInvalidWorkflowID, id)
	}

	return filepath.Join(wr.dir(), id+".json"), nil
}

// List returns paginated and filtered workflows, computed in memory.
func (wr *WorkflowRepository) List(ctx context.Context, opts persistence.ListOptions) (*persistence.ListResult, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	jsonFiles, err := fs.Glob(os.DirFS(wr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	records := make([]*models.WorkflowRecord, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := strings.TrimSuffix(file, ".json")

		record, err := wr.GetByID(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		if record != nil {
			records = append(records, record)
		}
	}

	return opts.ApplyInMemory(records), nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.WorkflowRecord, error) {
	filePath, err := wr.path(workflowID)
	if err != nil {
		return nil, nil
	}

	body, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	var record models.WorkflowRecord

	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &record, nil
}

// Create writes a new workflow document, generating an id when empty.
func (wr *WorkflowRepository) Create(_ context.Context, record *models.WorkflowRecord) (*models.WorkflowRecord, error) {
	if record == nil {
		return nil, errors.New("workflow record is nil")
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	created := persistence.PrepareForCreate(record, wr.now().UTC())

	filePath, err := wr.path(created.ID)
	if err != nil {
		return nil, persistence.NewWorkflowError("Create", created.ID, err)
	}

	if _, err := os.Stat(filePath); err == nil {
		return nil, persistence.NewWorkflowError("Create", created.ID, persistence.ErrWorkflowAlreadyExists)
	}

	if err := wr.write(filePath, created); err != nil {
		return nil, err
	}

	return created.Clone(), nil
}

// Update overwrites an existing workflow document.
func (wr *WorkflowRepository) Update(_ context.Context, record *models.WorkflowRecord) error {
	if record == nil {
		return errors.New("workflow record is nil")
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	filePath, err := wr.path(record.ID)
	if err != nil {
		return persistence.NewWorkflowError("Update", record.ID, persistence.ErrWorkflowNotFound)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return persistence.NewWorkflowError("Update", record.ID, persistence.ErrWorkflowNotFound)
	}

	updated := record.Clone()
	if updated.LastModified.IsZero() {
		updated.LastModified = wr.now().UTC()
	}

	return wr.write(filePath, updated)
}

func (wr *WorkflowRepository) write(filePath string, record *models.WorkflowRecord) error {
	if err := os.MkdirAll(wr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", record.ID, err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", record.ID, err)
	}

	return nil
}

// Delete removes a workflow by its ID. Missing workflows are not an error.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	filePath, err := wr.path(id)
	if err != nil {
		return nil
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	err = os.Remove(filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}
