// Package models defines the core domain models for the workflow builder.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Executable by the execution engine
	WorkflowStatusPaused   WorkflowStatus = "paused"   // Temporarily not executable
	WorkflowStatusArchived WorkflowStatus = "archived" // Terminal, kept for history
)

// WorkflowStatuses lists every known status in lifecycle order.
func WorkflowStatuses() []WorkflowStatus {
	return []WorkflowStatus{
		WorkflowStatusDraft,
		WorkflowStatusActive,
		WorkflowStatusPaused,
		WorkflowStatusArchived,
	}
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case WorkflowStatusDraft, WorkflowStatusActive, WorkflowStatusPaused, WorkflowStatusArchived:
		return true
	default:
		return false
	}
}

// Well-known workflow categories used by the dashboard. Category is free-form.
const (
	CategoryHR         = "hr"
	CategoryCommercial = "commercial"
	CategoryAdmin      = "admin"
	CategoryFinance    = "finance"
	CategoryOther      = "other"
)

// ExecutionStats are counters owned by the execution engine. The builder only
// threads them through on load and save.
type ExecutionStats struct {
	ExecutionCount       int64   `json:"executionCount"`
	AverageExecutionTime float64 `json:"averageExecutionTime"`
	SuccessRate          float64 `json:"successRate"`
}

// WorkflowRecord is the persistable payload of a workflow definition.
// Connections are not stored: they are derived from each step's NextSteps.
type WorkflowRecord struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	Status       WorkflowStatus `json:"status"`
	Steps        []*Step        `json:"steps"`
	Triggers     []*Trigger     `json:"triggers"`
	CreatedBy    string         `json:"createdBy"`
	CreatedDate  time.Time      `json:"createdDate"`
	LastModified time.Time      `json:"lastModified"`

	ExecutionStats
}

// Clone returns a deep copy of the record, safe to mutate independently.
func (r *WorkflowRecord) Clone() *WorkflowRecord {
	if r == nil {
		return nil
	}

	clone := *r

	clone.Steps = make([]*Step, 0, len(r.Steps))
	for _, step := range r.Steps {
		clone.Steps = append(clone.Steps, step.Clone())
	}

	clone.Triggers = make([]*Trigger, 0, len(r.Triggers))
	for _, trigger := range r.Triggers {
		clone.Triggers = append(clone.Triggers, trigger.Clone())
	}

	return &clone
}
