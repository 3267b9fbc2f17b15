package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/persistence"
	"github.com/dukex/atelier/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id string, created time.Time) *models.WorkflowRecord {
	return &models.WorkflowRecord{
		ID:       id,
		Name:     "Onboarding salarié",
		Category: "hr",
		Status:   models.WorkflowStatusDraft,
		Steps: []*models.Step{
			{
				ID:        "step-1",
				Name:      "Préparer le poste",
				Type:      models.StepTypeTask,
				Config:    models.TaskConfig{Assignee: "it", DueDate: "3 jours"},
				Position:  models.Position{X: 100, Y: 100},
				NextSteps: []string{"step-2"},
			},
			{
				ID:        "step-2",
				Name:      "Valider l'arrivée",
				Type:      models.StepTypeApproval,
				Config:    models.ApprovalConfig{Approvers: []string{"manager"}, TimeoutDays: 3},
				Position:  models.Position{X: 350, Y: 100},
				NextSteps: []string{},
			},
		},
		Triggers: []*models.Trigger{
			{ID: "trigger-1", Type: models.TriggerTypeManual, Config: models.TriggerConfig{"roles": []any{}}},
		},
		CreatedBy:    "marie",
		CreatedDate:  created,
		LastModified: created,
	}
}

func TestNewPersistence(t *testing.T) {
	persistence := NewPersistence("/tmp/test")
	fp := persistence.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	persistence = NewPersistence("file:///tmp/test")
	fp = persistence.(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(t.Context()))
	assert.Error(t, NewPersistence(filepath.Join(t.TempDir(), "missing")).HealthCheck(t.Context()))
	assert.NoError(t, NewPersistence(t.TempDir()).Close(t.Context()))
}

func TestWorkflowRepository_CreateAndGet(t *testing.T) {
	testDir := t.TempDir()
	repo := NewWorkflowRepository(testDir)

	created := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	record := sampleRecord("onboarding", created)

	stored, err := repo.Create(t.Context(), record)
	require.NoError(t, err)
	assert.Equal(t, record, stored)
	assert.FileExists(t, filepath.Join(testDir, "workflows", "onboarding.json"))

	fetched, err := repo.GetByID(t.Context(), "onboarding")
	require.NoError(t, err)
	assert.Equal(t, record, fetched)
	assert.Equal(t, models.ApprovalConfig{Approvers: []string{"manager"}, TimeoutDays: 3}, fetched.Steps[1].Config)

	_, err = repo.Create(t.Context(), record)
	assert.True(t, persistence.IsWorkflowAlreadyExists(err))
}

func TestWorkflowRepository_CreateGeneratesID(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	stored, err := repo.Create(t.Context(), &models.WorkflowRecord{Name: "Sans identifiant"})
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, models.WorkflowStatusDraft, stored.Status)
	assert.False(t, stored.CreatedDate.IsZero())
	assert.False(t, stored.LastModified.IsZero())
}

func TestWorkflowRepository_GetByID_Missing(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	for _, id := range []string{"missing", "../etc/passwd", ""} {
		record, err := repo.GetByID(t.Context(), id)
		require.NoError(t, err)
		assert.Nil(t, record)
	}
}

func TestWorkflowRepository_Update(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	created := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	_, err := repo.Create(t.Context(), sampleRecord("onboarding", created))
	require.NoError(t, err)

	changed := sampleRecord("onboarding", created)
	changed.Name = "Onboarding cadre"
	changed.LastModified = created.Add(time.Hour)

	require.NoError(t, repo.Update(t.Context(), changed))

	fetched, err := repo.GetByID(t.Context(), "onboarding")
	require.NoError(t, err)
	assert.Equal(t, "Onboarding cadre", fetched.Name)
	assert.Equal(t, created, fetched.CreatedDate)
	assert.Equal(t, created.Add(time.Hour), fetched.LastModified)

	err = repo.Update(t.Context(), sampleRecord("ghost", created))
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_Delete(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	_, err := repo.Create(t.Context(), sampleRecord("onboarding", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(t.Context(), "onboarding"))
	require.NoError(t, repo.Delete(t.Context(), "onboarding"))

	fetched, err := repo.GetByID(t.Context(), "onboarding")
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestWorkflowRepository_List(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())
	base := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	empty, err := repo.List(t.Context(), persistence.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, empty.Workflows)

	for i, id := range []string{"a", "b", "c"} {
		record := sampleRecord(id, base.Add(time.Duration(i)*time.Hour))
		if id == "b" {
			record.Category = "finance"
		}

		_, err := repo.Create(t.Context(), record)
		require.NoError(t, err)
	}

	result, err := repo.List(t.Context(), persistence.ListOptions{Category: "hr", SortOrder: persistence.SortOrderAsc})
	require.NoError(t, err)
	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "a", result.Workflows[0].ID)
	assert.Equal(t, "c", result.Workflows[1].ID)
	assert.Equal(t, int64(2), result.TotalCount)

	_, err = repo.List(t.Context(), persistence.ListOptions{SortBy: "name; DROP TABLE workflows; --"})
	assert.True(t, persistence.IsInvalidSortField(err))
}

func TestWorkflowRepository_Shared(t *testing.T) {
	testutil.RunWorkflowRepositoryTests(t.Context(), t, NewWorkflowRepository(t.TempDir()))
}
