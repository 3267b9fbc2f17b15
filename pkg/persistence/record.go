package persistence

import (
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/google/uuid"
)

// PrepareForCreate returns a copy of record with the fields a backend fills
// on create: an id when empty, creation and modification dates when zero,
// and the draft status when unset.
func PrepareForCreate(record *models.WorkflowRecord, now time.Time) *models.WorkflowRecord {
	prepared := record.Clone()

	if prepared.ID == "" {
		prepared.ID = uuid.NewString()
	}

	if prepared.CreatedDate.IsZero() {
		prepared.CreatedDate = now
	}

	if prepared.LastModified.IsZero() {
		prepared.LastModified = now
	}

	if prepared.Status == "" {
		prepared.Status = models.WorkflowStatusDraft
	}

	return prepared
}
