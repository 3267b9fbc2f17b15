// Package audit records every workflow event received from the bus as a
// structured log entry.
package audit

import (
	"context"
	"log/slog"

	"github.com/dukex/atelier/pkg/eventbus"
	"github.com/dukex/atelier/pkg/events"
)

// Trail writes one log entry per workflow event.
type Trail struct {
	logger *slog.Logger
}

func NewTrail(logger *slog.Logger) *Trail {
	return &Trail{logger: logger.With("module", "audit")}
}

// Handlers returns the handlers for every workflow event type.
func (t *Trail) Handlers() eventbus.Handlers {
	return eventbus.Handlers{
		events.WorkflowSavedEvent:         t.record,
		events.WorkflowDeletedEvent:       t.record,
		events.WorkflowStatusChangedEvent: t.record,
	}
}

// Register subscribes the trail to sub. sub.Subscribe must be called afterwards.
func (t *Trail) Register(sub eventbus.EventSubscriber) error {
	return t.Handlers().Register(sub)
}

func (t *Trail) record(ctx context.Context, event any) error {
	switch e := event.(type) {
	case *events.WorkflowSaved:
		t.logger.InfoContext(ctx, "workflow saved",
			"event_id", e.ID,
			"workflow_id", e.WorkflowID,
			"created", e.Created,
			"name", e.Name,
			"category", e.Category,
			"status", e.Status,
			"step_count", e.StepCount,
		)
	case *events.WorkflowDeleted:
		t.logger.InfoContext(ctx, "workflow deleted",
			"event_id", e.ID,
			"workflow_id", e.WorkflowID,
		)
	case *events.WorkflowStatusChanged:
		t.logger.InfoContext(ctx, "workflow status changed",
			"event_id", e.ID,
			"workflow_id", e.WorkflowID,
			"from", e.From,
			"to", e.To,
		)
	default:
		t.logger.WarnContext(ctx, "unexpected audit event", "event", event)
	}

	return nil
}
