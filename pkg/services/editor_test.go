package services

import (
	"testing"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/persistence/file"
	"github.com/dukex/atelier/pkg/sessions"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditor(t *testing.T) *Editor {
	t.Helper()

	workflows := NewWorkflow(file.NewPersistence(t.TempDir()), nil, discard)

	return NewEditor(sessions.NewStore(time.Minute), workflows, discard)
}

func ptr[T any](v T) *T {
	return &v
}

func TestEditor_OpenBlank(t *testing.T) {
	editor := newEditor(t)

	snap, err := editor.Open(t.Context(), OpenRequest{CreatedBy: "marie"})
	require.NoError(t, err)

	assert.NotEmpty(t, snap.SessionID)
	assert.True(t, snap.IsNew)
	assert.Empty(t, snap.ID)
	assert.Equal(t, "marie", snap.CreatedBy)
	assert.Equal(t, models.WorkflowStatusDraft, snap.Status)
	assert.Empty(t, snap.Steps)
	require.Len(t, snap.Triggers, 1)
	assert.Equal(t, models.TriggerTypeManual, snap.Triggers[0].Type)
	assert.Nil(t, snap.CreatedDate)
}

func TestEditor_OpenSources(t *testing.T) {
	editor := newEditor(t)

	editor.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

	snap, err := editor.Open(t.Context(), OpenRequest{Template: "relance-facture"})
	require.NoError(t, err)
	assert.Len(t, snap.Steps, 3)
	assert.Len(t, snap.Connections, 2)
	require.Len(t, snap.Triggers, 1)
	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), snap.NextRuns[snap.Triggers[0].ID].UTC())

	_, err = editor.Open(t.Context(), OpenRequest{Template: "inconnu"})
	assert.True(t, IsNotFoundError(err))

	_, err = editor.Open(t.Context(), OpenRequest{WorkflowID: "missing"})
	assert.True(t, IsNotFoundError(err))

	_, err = editor.Open(t.Context(), OpenRequest{WorkflowID: "a", Template: "b"})
	assert.True(t, IsValidationError(err))
}

func TestEditor_BuildAndSave(t *testing.T) {
	editor := newEditor(t)

	snap, err := editor.Open(t.Context(), OpenRequest{CreatedBy: "paul"})
	require.NoError(t, err)

	sid := snap.SessionID

	violations, err := editor.Validate(sid)
	require.NoError(t, err)
	assert.Len(t, violations, 3)

	_, _, err = editor.Save(t.Context(), sid)
	require.True(t, IsStructuralViolation(err))

	_, err = editor.UpdateMetadata(sid, MetadataUpdate{
		Name:     ptr("Validation note de frais"),
		Category: ptr(models.CategoryFinance),
	})
	require.NoError(t, err)

	approval, err := editor.AddStep(sid, models.StepTypeApproval)
	require.NoError(t, err)
	assert.Equal(t, "New step 1", approval.Name)

	notification, err := editor.AddStep(sid, models.StepTypeNotification)
	require.NoError(t, err)

	violations, err = editor.Validate(sid)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, validation.CodeOrphanSteps, violations[0].Code)

	added, err := editor.AddConnection(sid, approval.ID, notification.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = editor.AddConnection(sid, approval.ID, notification.ID)
	require.NoError(t, err)
	assert.False(t, added)

	updated, err := editor.UpdateStep(sid, approval.ID, workflow.StepUpdate{
		Name:   ptr("Validation manager"),
		Config: map[string]any{"approvers": []any{"manager"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalConfig{Approvers: []string{"manager"}, TimeoutDays: 3}, updated.Config)

	record, created, err := editor.Save(t.Context(), sid)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "paul", record.CreatedBy)

	_, created, err = editor.Save(t.Context(), sid)
	require.NoError(t, err)
	assert.False(t, created)

	snap, err = editor.Snapshot(sid)
	require.NoError(t, err)
	assert.Equal(t, record.ID, snap.ID)
	assert.False(t, snap.IsNew)
	assert.NotNil(t, snap.CreatedDate)

	reopened, err := editor.Open(t.Context(), OpenRequest{WorkflowID: record.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.Connection{{Source: approval.ID, Target: notification.ID}}, reopened.Connections)
}

func TestEditor_StepAndConnectionEdits(t *testing.T) {
	editor := newEditor(t)

	snap, err := editor.Open(t.Context(), OpenRequest{Template: "onboarding-salarie"})
	require.NoError(t, err)

	sid := snap.SessionID
	first, second := snap.Steps[0].ID, snap.Steps[1].ID

	_, err = editor.AddStep(sid, "teleport")
	assert.True(t, IsValidationError(err))

	_, err = editor.UpdateStep(sid, "missing", workflow.StepUpdate{Name: ptr("x")})
	assert.True(t, IsNotFoundError(err))

	_, err = editor.UpdateStep(sid, first, workflow.StepUpdate{Config: map[string]any{"outputFormat": "odt"}})
	assert.True(t, IsValidationError(err))

	removed, err := editor.RemoveConnection(sid, first, second)
	require.NoError(t, err)
	assert.True(t, removed)

	require.NoError(t, editor.RemoveStep(sid, second))
	require.NoError(t, editor.RemoveStep(sid, "missing"))

	snap, err = editor.Snapshot(sid)
	require.NoError(t, err)
	assert.Len(t, snap.Steps, 3)

	for _, connection := range snap.Connections {
		assert.NotEqual(t, second, connection.Source)
		assert.NotEqual(t, second, connection.Target)
	}

	editor.Close(sid)

	_, err = editor.Snapshot(sid)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEditor_Triggers(t *testing.T) {
	editor := newEditor(t)

	snap, err := editor.Open(t.Context(), OpenRequest{})
	require.NoError(t, err)

	sid := snap.SessionID

	trigger, err := editor.AddTrigger(sid, models.TriggerTypeScheduled)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerConfig{"schedule": ""}, trigger.Config)

	_, err = editor.UpdateTrigger(sid, trigger.ID, workflow.TriggerUpdate{Config: map[string]any{"schedule": "pas un cron"}})
	assert.True(t, IsValidationError(err))

	updated, err := editor.UpdateTrigger(sid, trigger.ID, workflow.TriggerUpdate{Config: map[string]any{"schedule": "30 8 * * 1-5"}})
	require.NoError(t, err)
	assert.Equal(t, "30 8 * * 1-5", updated.Config["schedule"])

	_, err = editor.AddTrigger(sid, "webhook")
	assert.True(t, IsValidationError(err))

	replaced, err := editor.ReplaceTriggers(sid, []*models.Trigger{{Type: models.TriggerTypeAPI}})
	require.NoError(t, err)
	require.Len(t, replaced, 1)
	assert.Equal(t, models.TriggerConfig{"endpoint": ""}, replaced[0].Config)

	_, err = editor.ReplaceTriggers(sid, []*models.Trigger{{Type: "webhook"}})
	assert.True(t, IsValidationError(err))

	_, err = editor.UpdateTrigger(sid, "missing", workflow.TriggerUpdate{})
	assert.True(t, IsNotFoundError(err))
}
