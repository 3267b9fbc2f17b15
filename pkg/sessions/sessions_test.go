package sessions

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateGetDelete(t *testing.T) {
	store := NewStore(time.Minute, WithIDGenerator(func() string { return "session-1" }))

	session := store.Create(workflow.NewDefinition())
	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, 1, store.Count())

	got, err := store.Get("session-1")
	require.NoError(t, err)
	assert.Same(t, session, got)

	store.Delete("session-1")

	_, err = store.Get("session-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_Expiry(t *testing.T) {
	store := NewStore(20 * time.Millisecond)
	session := store.Create(workflow.NewDefinition())

	time.Sleep(50 * time.Millisecond)

	_, err := store.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_With(t *testing.T) {
	store := NewStore(time.Minute)
	session := store.Create(workflow.NewDefinition())

	err := store.With(session.ID, func(d *workflow.Definition) error {
		d.SetName("Onboarding salarié")
		d.Graph().AddStep(models.StepTypeTask)

		return nil
	})
	require.NoError(t, err)

	var name string

	var steps int

	require.NoError(t, store.With(session.ID, func(d *workflow.Definition) error {
		name = d.Name()
		steps = len(d.Steps())

		return nil
	}))

	assert.Equal(t, "Onboarding salarié", name)
	assert.Equal(t, 1, steps)

	boom := errors.New("boom")
	assert.ErrorIs(t, store.With(session.ID, func(*workflow.Definition) error { return boom }), boom)
	assert.ErrorIs(t, store.With("missing", func(*workflow.Definition) error { return nil }), ErrSessionNotFound)
}

func TestStore_WithSerializesEdits(t *testing.T) {
	store := NewStore(time.Minute)
	session := store.Create(workflow.NewDefinition())

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = store.With(session.ID, func(d *workflow.Definition) error {
				d.Graph().AddStep(models.StepTypeDelay)

				return nil
			})
		}()
	}

	wg.Wait()

	require.NoError(t, store.With(session.ID, func(d *workflow.Definition) error {
		steps := d.Steps()
		assert.Len(t, steps, 20)
		assert.Equal(t, "New step 20", steps[19].Name)

		return nil
	}))
}

func TestStore_GetDoesNotReviveDeletedSession(t *testing.T) {
	store := NewStore(time.Minute)

	for range 200 {
		session := store.Create(workflow.NewDefinition())

		var wg sync.WaitGroup

		for range 4 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, _ = store.Get(session.ID)
			}()
		}

		store.Delete(session.ID)
		wg.Wait()

		_, err := store.Get(session.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)
	}

	assert.Zero(t, store.Count())
}
