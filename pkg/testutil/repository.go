package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWorkflowRepositoryTests checks the behaviour every WorkflowRepository
// backend shares. repo must start empty.
func RunWorkflowRepositoryTests(ctx context.Context, t *testing.T, repo persistence.WorkflowRepository) {
	t.Helper()

	t.Run("create and get", func(t *testing.T) {
		record := CreateTestRecord("contrat-1")

		stored, err := repo.Create(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, record, stored)

		_, err = repo.Create(ctx, record)
		assert.True(t, persistence.IsWorkflowAlreadyExists(err))

		fetched, err := repo.GetByID(ctx, "contrat-1")
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, record.Steps, fetched.Steps)
		assert.Equal(t, record.Triggers, fetched.Triggers)
		assert.True(t, record.CreatedDate.Equal(fetched.CreatedDate))
	})

	t.Run("missing", func(t *testing.T) {
		fetched, err := repo.GetByID(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, fetched)

		err = repo.Update(ctx, CreateTestRecord("absent"))
		assert.True(t, persistence.IsWorkflowNotFound(err))

		assert.NoError(t, repo.Delete(ctx, "absent"))
	})

	t.Run("update", func(t *testing.T) {
		record := CreateTestRecord("contrat-2")

		_, err := repo.Create(ctx, record)
		require.NoError(t, err)

		record.Name = "Contrat signé"
		record.Status = models.WorkflowStatusActive
		record.LastModified = ReferenceTime.Add(time.Hour)
		require.NoError(t, repo.Update(ctx, record))

		fetched, err := repo.GetByID(ctx, "contrat-2")
		require.NoError(t, err)
		assert.Equal(t, "Contrat signé", fetched.Name)
		assert.Equal(t, models.WorkflowStatusActive, fetched.Status)
		assert.True(t, ReferenceTime.Add(time.Hour).Equal(fetched.LastModified))
	})

	t.Run("list filters", func(t *testing.T) {
		fixtures := []*models.WorkflowRecord{
			CreateTestRecord("liste-a", WithCategory(models.CategoryFinance), WithCreatedBy("paul"),
				WithCreatedDate(ReferenceTime.Add(24*time.Hour))),
			CreateTestRecord("liste-b", WithCategory(models.CategoryFinance), WithStatus(models.WorkflowStatusPaused),
				WithCreatedDate(ReferenceTime.Add(48*time.Hour))),
		}

		for _, fixture := range fixtures {
			_, err := repo.Create(ctx, fixture)
			require.NoError(t, err)
		}

		result, err := repo.List(ctx, persistence.ListOptions{Category: models.CategoryFinance})
		require.NoError(t, err)
		require.Len(t, result.Workflows, 2)
		assert.Equal(t, "liste-b", result.Workflows[0].ID)

		paused := models.WorkflowStatusPaused
		result, err = repo.List(ctx, persistence.ListOptions{Status: &paused})
		require.NoError(t, err)
		require.Len(t, result.Workflows, 1)
		assert.Equal(t, "liste-b", result.Workflows[0].ID)

		result, err = repo.List(ctx, persistence.ListOptions{CreatedBy: "paul"})
		require.NoError(t, err)
		require.Len(t, result.Workflows, 1)
		assert.Equal(t, "liste-a", result.Workflows[0].ID)

		_, err = repo.List(ctx, persistence.ListOptions{SortOrder: "sideways"})
		assert.ErrorIs(t, err, persistence.ErrInvalidSortOrder)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := repo.Create(ctx, CreateTestRecord("contrat-3"))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, "contrat-3"))
		require.NoError(t, repo.Delete(ctx, "contrat-3"))

		fetched, err := repo.GetByID(ctx, "contrat-3")
		require.NoError(t, err)
		assert.Nil(t, fetched)
	})
}
