package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/registry"
	"github.com/dukex/atelier/pkg/sessions"
	"github.com/dukex/atelier/pkg/templates"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/workflow"
)

// Snapshot is the state of an editing session as shown to the builder.
type Snapshot struct {
	SessionID    string                `json:"sessionId"`
	ID           string                `json:"id,omitempty"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Category     string                `json:"category"`
	Status       models.WorkflowStatus `json:"status"`
	CreatedBy    string                `json:"createdBy"`
	CreatedDate  *time.Time            `json:"createdDate,omitempty"`
	LastModified *time.Time            `json:"lastModified,omitempty"`
	IsNew        bool                  `json:"isNew"`
	Steps        []*models.Step        `json:"steps"`
	Triggers     []*models.Trigger     `json:"triggers"`
	Connections  []models.Connection   `json:"connections"`
	// NextRuns holds the next firing time of each scheduled trigger, by trigger id.
	NextRuns     map[string]time.Time  `json:"nextRuns,omitempty"`
}

func (e *Editor) snapshot(sessionID string, definition *workflow.Definition) *Snapshot {
	s := &Snapshot{
		SessionID:   sessionID,
		ID:          definition.ID(),
		Name:        definition.Name(),
		Description: definition.Description(),
		Category:    definition.Category(),
		Status:      definition.Status(),
		CreatedBy:   definition.CreatedBy(),
		IsNew:       definition.IsNew(),
		Steps:       definition.Steps(),
		Triggers:    definition.Triggers(),
		Connections: definition.Connections(),
	}

	if created := definition.CreatedDate(); !created.IsZero() {
		s.CreatedDate = &created
	}

	if modified := definition.LastModified(); !modified.IsZero() {
		s.LastModified = &modified
	}

	now := e.now()

	for _, trigger := range s.Triggers {
		if next, ok := registry.NextRun(trigger, now); ok {
			if s.NextRuns == nil {
				s.NextRuns = make(map[string]time.Time)
			}

			s.NextRuns[trigger.ID] = next
		}
	}

	return s
}

// OpenRequest selects what a new session starts from. At most one of
// WorkflowID and Template is set; neither means a blank workflow.
type OpenRequest struct {
	WorkflowID string
	Template   string
	CreatedBy  string
}

// MetadataUpdate holds the workflow fields edited outside the graph.
type MetadataUpdate struct {
	Name        *string
	Description *string
	Category    *string
}

// Editor applies builder edits to definitions held in sessions.
type Editor struct {
	sessions  *sessions.Store
	workflows *Workflow
	logger    *slog.Logger
	now       func() time.Time
}

func NewEditor(store *sessions.Store, workflows *Workflow, logger *slog.Logger) *Editor {
	return &Editor{
		sessions:  store,
		workflows: workflows,
		logger:    logger.With("module", "editor_service"),
		now:       time.Now,
	}
}

// Open starts an editing session.
func (e *Editor) Open(ctx context.Context, req OpenRequest) (*Snapshot, error) {
	var (
		definition *workflow.Definition
		err        error
	)

	switch {
	case req.WorkflowID != "" && req.Template != "":
		return nil, NewValidationError("Open", "INVALID_SOURCE", "workflowId and template are exclusive", ErrInvalidRequest)
	case req.WorkflowID != "":
		definition, err = e.workflows.Load(ctx, req.WorkflowID)
	case req.Template != "":
		var template *templates.Template

		template, err = templates.Get(req.Template)
		if err == nil {
			definition, err = template.Instantiate(workflow.WithCreator(req.CreatedBy))
		}
	default:
		definition = workflow.NewDefinition(workflow.WithCreator(req.CreatedBy))
	}

	if err != nil {
		return nil, err
	}

	session := e.sessions.Create(definition)

	e.logger.DebugContext(ctx, "editing session opened",
		"session_id", session.ID,
		"workflow_id", req.WorkflowID,
		"template", req.Template,
	)

	return e.snapshot(session.ID, definition), nil
}

// Snapshot returns the current state of a session.
func (e *Editor) Snapshot(sessionID string) (*Snapshot, error) {
	var result *Snapshot

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		result = e.snapshot(sessionID, d)

		return nil
	})

	return result, err
}

// Close discards a session and its unsaved edits.
func (e *Editor) Close(sessionID string) {
	e.sessions.Delete(sessionID)
}

func (e *Editor) UpdateMetadata(sessionID string, update MetadataUpdate) (*Snapshot, error) {
	var result *Snapshot

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		if update.Name != nil {
			d.SetName(*update.Name)
		}

		if update.Description != nil {
			d.SetDescription(*update.Description)
		}

		if update.Category != nil {
			d.SetCategory(*update.Category)
		}

		result = e.snapshot(sessionID, d)

		return nil
	})

	return result, err
}

func (e *Editor) AddStep(sessionID string, stepType models.StepType) (*models.Step, error) {
	if !registry.IsKnownStepType(stepType) {
		return nil, NewValidationError("AddStep", "UNKNOWN_STEP_TYPE", fmt.Sprintf("unknown step type '%s'", stepType), ErrInvalidRequest)
	}

	var step *models.Step

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		step = d.Graph().AddStep(stepType)

		return nil
	})

	return step, err
}

func (e *Editor) UpdateStep(sessionID, stepID string, update workflow.StepUpdate) (*models.Step, error) {
	var step *models.Step

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		var err error

		step, err = d.Graph().UpdateStep(stepID, update)

		return err
	})

	return step, err
}

// RemoveStep deletes a step and every connection touching it. Unknown ids are ignored.
func (e *Editor) RemoveStep(sessionID, stepID string) error {
	return e.sessions.With(sessionID, func(d *workflow.Definition) error {
		d.Graph().RemoveStep(stepID)

		return nil
	})
}

// AddConnection reports whether a new edge was added.
func (e *Editor) AddConnection(sessionID, source, target string) (bool, error) {
	var added bool

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		added = d.Graph().AddConnection(source, target)

		return nil
	})

	return added, err
}

// RemoveConnection reports whether an edge was removed.
func (e *Editor) RemoveConnection(sessionID, source, target string) (bool, error) {
	var removed bool

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		removed = d.Graph().RemoveConnection(source, target)

		return nil
	})

	return removed, err
}

func (e *Editor) AddTrigger(sessionID string, triggerType models.TriggerType) (*models.Trigger, error) {
	if !triggerType.IsValid() {
		return nil, NewValidationError("AddTrigger", "UNKNOWN_TRIGGER_TYPE", fmt.Sprintf("unknown trigger type '%s'", triggerType), ErrInvalidRequest)
	}

	var trigger *models.Trigger

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		trigger = d.Graph().AddTrigger(triggerType)

		return nil
	})

	return trigger, err
}

func (e *Editor) UpdateTrigger(sessionID, triggerID string, update workflow.TriggerUpdate) (*models.Trigger, error) {
	if update.Type != nil && !update.Type.IsValid() {
		return nil, NewValidationError("UpdateTrigger", "UNKNOWN_TRIGGER_TYPE", fmt.Sprintf("unknown trigger type '%s'", *update.Type), ErrInvalidRequest)
	}

	var trigger *models.Trigger

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		var err error

		trigger, err = d.Graph().UpdateTrigger(triggerID, update)

		return err
	})

	return trigger, err
}

func (e *Editor) ReplaceTriggers(sessionID string, triggers []*models.Trigger) ([]*models.Trigger, error) {
	for _, trigger := range triggers {
		if trigger != nil && !trigger.Type.IsValid() {
			return nil, NewValidationError("ReplaceTriggers", "UNKNOWN_TRIGGER_TYPE", fmt.Sprintf("unknown trigger type '%s'", trigger.Type), ErrInvalidRequest)
		}
	}

	var replaced []*models.Trigger

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		var err error

		replaced, err = d.Graph().ReplaceTriggers(triggers)

		return err
	})

	return replaced, err
}

// Validate returns the current violations of the session's definition.
func (e *Editor) Validate(sessionID string) ([]validation.Violation, error) {
	var violations []validation.Violation

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		violations = d.Validate()

		return nil
	})

	return violations, err
}

// Save persists the session's definition. The session stays open so editing
// can continue; later saves update the same workflow.
func (e *Editor) Save(ctx context.Context, sessionID string) (*models.WorkflowRecord, bool, error) {
	var (
		record  *models.WorkflowRecord
		created bool
	)

	err := e.sessions.With(sessionID, func(d *workflow.Definition) error {
		var err error

		record, created, err = e.workflows.Persist(ctx, d)

		return err
	})

	return record, created, err
}
