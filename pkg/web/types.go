package web

import (
	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/services"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/workflow"
)

// ChangeStatusRequest represents the request body for a lifecycle transition.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active paused archived"`
}

// OpenSessionRequest represents the request body for opening an editing session.
// WorkflowID and Template are exclusive; neither starts a blank workflow.
type OpenSessionRequest struct {
	WorkflowID string `json:"workflowId" validate:"excluded_with=Template"`
	Template   string `json:"template"`
	CreatedBy  string `json:"createdBy"  validate:"max=100"`
}

// UpdateMetadataRequest represents a partial update of the workflow fields.
type UpdateMetadataRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty"    validate:"omitempty,max=64"`
}

// AddStepRequest represents the request body for adding a step.
type AddStepRequest struct {
	Type string `json:"type" validate:"required,oneof=approval notification task condition delay integration document"`
}

// UpdateStepRequest represents a partial step update. Config keys are merged
// into the step's current configuration.
type UpdateStepRequest struct {
	Name     *string          `json:"name,omitempty"     validate:"omitempty,max=200"`
	Position *models.Position `json:"position,omitempty"`
	Config   map[string]any   `json:"config,omitempty"`
}

func (r UpdateStepRequest) toStepUpdate() workflow.StepUpdate {
	return workflow.StepUpdate{
		Name:     r.Name,
		Position: r.Position,
		Config:   r.Config,
	}
}

// ConnectionRequest represents the request body for adding a connection.
type ConnectionRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// AddTriggerRequest represents the request body for adding a trigger.
type AddTriggerRequest struct {
	Type string `json:"type" validate:"required,oneof=manual scheduled event form api"`
}

// UpdateTriggerRequest represents a partial trigger update.
type UpdateTriggerRequest struct {
	Type   *string        `json:"type,omitempty"   validate:"omitempty,oneof=manual scheduled event form api"`
	Config map[string]any `json:"config,omitempty"`
}

func (r UpdateTriggerRequest) toTriggerUpdate() workflow.TriggerUpdate {
	update := workflow.TriggerUpdate{Config: r.Config}

	if r.Type != nil {
		triggerType := models.TriggerType(*r.Type)
		update.Type = &triggerType
	}

	return update
}

// TriggerRequest is one entry of a trigger set replacement.
type TriggerRequest struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"   validate:"required,oneof=manual scheduled event form api"`
	Config map[string]any `json:"config"`
}

func toTriggers(requests []TriggerRequest) []*models.Trigger {
	triggers := make([]*models.Trigger, 0, len(requests))

	for _, req := range requests {
		trigger := &models.Trigger{ID: req.ID, Type: models.TriggerType(req.Type)}
		if req.Config != nil {
			trigger.Config = models.TriggerConfig(req.Config)
		}

		triggers = append(triggers, trigger)
	}

	return triggers
}

// ValidationResponse reports the structural checks of a definition.
type ValidationResponse struct {
	Valid      bool                   `json:"valid"`
	Violations []validation.Violation `json:"violations"`
	Messages   []string               `json:"messages"`
}

func newValidationResponse(violations []validation.Violation) ValidationResponse {
	if violations == nil {
		violations = []validation.Violation{}
	}

	return ValidationResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
		Messages:   validation.Messages(violations),
	}
}

// ConnectionResponse reports the outcome of a connection edit.
type ConnectionResponse struct {
	Changed     bool                `json:"changed"`
	Connections []models.Connection `json:"connections"`
}

// SaveResponse wraps the stored record of a session save.
type SaveResponse struct {
	Created  bool                   `json:"created"`
	Workflow *models.WorkflowRecord `json:"workflow"`
	Session  *services.Snapshot     `json:"session"`
}
