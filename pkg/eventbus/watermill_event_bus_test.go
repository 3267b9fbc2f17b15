package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/atelier/pkg/channels/gochannel"
	"github.com/dukex/atelier/pkg/events"
	"github.com/dukex/atelier/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub, slog.Default())

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan *events.WorkflowStatusChanged, 1)

	require.NoError(t, bus.Handle(events.WorkflowStatusChangedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowStatusChanged)

		return nil
	}))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	sent := events.WorkflowStatusChanged{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.WorkflowStatusChangedEvent, "wf-1", time.Now()),
		From:      models.WorkflowStatusDraft,
		To:        models.WorkflowStatusActive,
	}

	require.NoError(t, bus.Publish(t.Context(), "wf-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, "wf-1", got.WorkflowID)
		assert.Equal(t, models.WorkflowStatusDraft, got.From)
		assert.Equal(t, models.WorkflowStatusActive, got.To)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypeIsAcked(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan string, 2)

	require.NoError(t, bus.Handle(events.WorkflowDeletedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowDeleted).WorkflowID

		return nil
	}))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	saved := events.WorkflowSaved{BaseEvent: events.NewBaseEvent("e1", events.WorkflowSavedEvent, "wf-1", time.Now())}
	deleted := events.WorkflowDeleted{BaseEvent: events.NewBaseEvent("e2", events.WorkflowDeletedEvent, "wf-2", time.Now())}

	require.NoError(t, bus.Publish(t.Context(), "wf-1", saved))
	require.NoError(t, bus.Publish(t.Context(), "wf-2", deleted))

	select {
	case id := <-received:
		assert.Equal(t, "wf-2", id)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

type failingPublisherEvent struct{}

func (failingPublisherEvent) GetType() events.EventType { return events.WorkflowSavedEvent }

func (failingPublisherEvent) MarshalJSON() ([]byte, error) {
	return nil, errors.New("boom")
}

func TestWatermillEventBus_PublishMarshalError(t *testing.T) {
	bus := newTestBus(t)

	err := bus.Publish(t.Context(), "wf-1", failingPublisherEvent{})
	assert.Error(t, err)
}
