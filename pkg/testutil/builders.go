// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/dukex/atelier/pkg/models"
)

// ReferenceTime is a fixed, second-precision instant usable by every backend.
var ReferenceTime = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

// CreateTestStep creates a task step with default values that can be overridden.
func CreateTestStep(id string, overrides ...func(*models.Step)) *models.Step {
	step := &models.Step{
		ID:        id,
		Name:      "Étape " + id,
		Type:      models.StepTypeTask,
		Config:    models.TaskConfig{Assignee: "rh", DueDate: "3 jours"},
		Position:  models.Position{X: 100, Y: 100},
		NextSteps: []string{},
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// WithStepConfig sets the step type from the configuration variant.
func WithStepConfig(config models.StepConfig) func(*models.Step) {
	return func(s *models.Step) {
		s.Type = config.StepType()
		s.Config = config
	}
}

// WithNext sets the step successors.
func WithNext(ids ...string) func(*models.Step) {
	return func(s *models.Step) {
		s.NextSteps = append([]string{}, ids...)
	}
}

// CreateTestRecord creates a valid two-step HR workflow record that can be overridden.
func CreateTestRecord(id string, overrides ...func(*models.WorkflowRecord)) *models.WorkflowRecord {
	record := &models.WorkflowRecord{
		ID:          id,
		Name:        "Workflow " + id,
		Description: "Préparer puis valider",
		Category:    models.CategoryHR,
		Status:      models.WorkflowStatusDraft,
		Steps: []*models.Step{
			CreateTestStep("preparer", WithNext("valider")),
			CreateTestStep("valider", WithStepConfig(models.ApprovalConfig{Approvers: []string{"manager"}, TimeoutDays: 3})),
		},
		Triggers: []*models.Trigger{
			{ID: "declencheur", Type: models.TriggerTypeForm, Config: models.TriggerConfig{"formId": "embauche"}},
		},
		CreatedBy:    "marie",
		CreatedDate:  ReferenceTime,
		LastModified: ReferenceTime,
	}

	for _, override := range overrides {
		override(record)
	}

	return record
}

// WithCategory sets the record category.
func WithCategory(category string) func(*models.WorkflowRecord) {
	return func(r *models.WorkflowRecord) {
		r.Category = category
	}
}

// WithStatus sets the record status.
func WithStatus(status models.WorkflowStatus) func(*models.WorkflowRecord) {
	return func(r *models.WorkflowRecord) {
		r.Status = status
	}
}

// WithCreatedBy sets the record creator.
func WithCreatedBy(createdBy string) func(*models.WorkflowRecord) {
	return func(r *models.WorkflowRecord) {
		r.CreatedBy = createdBy
	}
}

// WithCreatedDate sets both dates of the record.
func WithCreatedDate(created time.Time) func(*models.WorkflowRecord) {
	return func(r *models.WorkflowRecord) {
		r.CreatedDate = created
		r.LastModified = created
	}
}
