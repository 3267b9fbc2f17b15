package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/atelier/pkg/eventbus"
	"github.com/dukex/atelier/pkg/events"
	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/otelhelper"
	"github.com/dukex/atelier/pkg/persistence"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Workflow manages saved workflow definitions.
type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewWorkflow creates a new workflow service. publisher may be nil, in which
// case no events are sent.
func NewWorkflow(persistence persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Workflow {
	return &Workflow{
		persistence: persistence,
		publisher:   publisher,
		logger:      logger.With("module", "workflow_service"),
		tracer:      otelhelper.Tracer(),
		now:         time.Now,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	// Pagination
	Limit  int
	Offset int

	// Filtering
	Category  string
	Status    *models.WorkflowStatus
	CreatedBy string

	// Sorting
	SortBy    string
	SortOrder string
}

// List retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) List(ctx context.Context, req ListWorkflowsRequest) (*persistence.ListResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.list")
	defer span.End()

	if req.Status != nil && !req.Status.IsValid() {
		return nil, NewValidationError(
			"List",
			"INVALID_STATUS",
			fmt.Sprintf("invalid status '%s'", *req.Status),
			ErrInvalidStatus,
		)
	}

	opts, err := persistence.ListOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Category:  req.Category,
		Status:    req.Status,
		CreatedBy: req.CreatedBy,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}.Normalize()
	if err != nil {
		return nil, NewValidationError("List", "INVALID_SORT", err.Error(), err)
	}

	result, err := w.persistence.WorkflowRepository().List(ctx, opts)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return result, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.WorkflowRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.fetch",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	record, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if record == nil {
		return nil, ErrWorkflowNotFound
	}

	return record, nil
}

// Load fetches a workflow and rebuilds its editable definition.
func (w *Workflow) Load(ctx context.Context, id string, opts ...workflow.Option) (*workflow.Definition, error) {
	record, err := w.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return workflow.FromPersisted(record, opts...)
}

// Persist validates the definition and stores it. New definitions are
// created and adopt the stored id; saved ones are updated in place. The
// violations are returned as a *validation.ViolationError and nothing is
// written when the definition is invalid.
func (w *Workflow) Persist(ctx context.Context, definition *workflow.Definition) (*models.WorkflowRecord, bool, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.persist",
		attribute.String(otelhelper.WorkflowIDKey, definition.ID()),
		attribute.String(otelhelper.WorkflowNameKey, definition.Name()),
		attribute.Int(otelhelper.StepCountKey, len(definition.Steps())),
	)
	defer span.End()

	if err := validation.NewViolationError(definition.Validate()); err != nil {
		violations, _ := validation.AsViolations(err)
		span.SetAttributes(attribute.Int(otelhelper.ViolationCountKey, len(violations)))

		return nil, false, err
	}

	repository := w.persistence.WorkflowRepository()
	created := definition.IsNew()
	record := definition.ToPersistablePayload()

	if created {
		stored, err := repository.Create(ctx, record)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, false, fmt.Errorf("failed to create workflow: %w", err)
		}

		record = stored
	} else {
		existing, err := repository.GetByID(ctx, record.ID)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, false, fmt.Errorf("failed to load workflow: %w", err)
		}

		if existing == nil {
			return nil, false, ErrWorkflowNotFound
		}

		if existing.Status == models.WorkflowStatusArchived {
			return nil, false, ErrCannotModifyArchived
		}

		// Execution counters belong to the engine; keep the stored ones.
		record.ExecutionStats = existing.ExecutionStats

		if err := repository.Update(ctx, record); err != nil {
			otelhelper.SetError(span, err)

			if persistence.IsWorkflowNotFound(err) {
				return nil, false, ErrWorkflowNotFound
			}

			return nil, false, fmt.Errorf("failed to update workflow: %w", err)
		}
	}

	definition.Acknowledge(record)

	w.logger.InfoContext(ctx, "workflow saved",
		"workflow_id", record.ID,
		"created", created,
		"steps", len(record.Steps),
	)

	w.publish(ctx, record.ID, events.WorkflowSaved{
		BaseEvent: w.baseEvent(events.WorkflowSavedEvent, record.ID),
		Created:   created,
		Name:      record.Name,
		Category:  record.Category,
		Status:    record.Status,
		StepCount: len(record.Steps),
	})

	return record.Clone(), created, nil
}

// ChangeStatus applies a lifecycle transition to a saved workflow.
func (w *Workflow) ChangeStatus(ctx context.Context, id string, to models.WorkflowStatus) (*models.WorkflowRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.change_status",
		attribute.String(otelhelper.WorkflowIDKey, id),
		attribute.String(otelhelper.WorkflowStatusKey, string(to)),
	)
	defer span.End()

	definition, err := w.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := definition.Status()

	if err := definition.Transition(to); err != nil {
		return nil, err
	}

	record := definition.ToPersistablePayload()

	if err := w.persistence.WorkflowRepository().Update(ctx, record); err != nil {
		otelhelper.SetError(span, err)

		if persistence.IsWorkflowNotFound(err) {
			return nil, ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to update workflow status: %w", err)
	}

	w.logger.InfoContext(ctx, "workflow status changed", "workflow_id", id, "from", from, "to", to)

	w.publish(ctx, id, events.WorkflowStatusChanged{
		BaseEvent: w.baseEvent(events.WorkflowStatusChangedEvent, id),
		From:      from,
		To:        to,
	})

	return record, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.delete",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if _, err := w.FetchByID(ctx, id); err != nil {
		return err
	}

	err := w.persistence.WorkflowRepository().Delete(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.publish(ctx, id, events.WorkflowDeleted{
		BaseEvent: w.baseEvent(events.WorkflowDeletedEvent, id),
	})

	return nil
}

func (w *Workflow) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.NewBaseEvent(uuid.NewString(), eventType, workflowID, w.now())
}

// publish sends the event after the write has succeeded. A failure is
// logged and never surfaces to the caller.
func (w *Workflow) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.Publish(ctx, workflowID, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to publish workflow event",
			"workflow_id", workflowID,
			"event_type", event.GetType(),
			"error", err,
		)
	}
}
