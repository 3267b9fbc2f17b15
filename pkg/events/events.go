// Package events defines the notifications published when saved workflows change.
package events

import (
	"time"

	"github.com/dukex/atelier/pkg/models"
)

type EventType string

// Topic carries every workflow event.
const Topic = "atelier.workflows"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowSavedEvent         EventType = "workflow.saved"
	WorkflowDeletedEvent       EventType = "workflow.deleted"
	WorkflowStatusChangedEvent EventType = "workflow.status_changed"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

// NewBaseEvent fills the common fields of an event.
func NewBaseEvent(id string, eventType EventType, workflowID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  at.UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowSaved is published after a workflow has been created or updated.
type WorkflowSaved struct {
	BaseEvent

	Created   bool                  `json:"created"`
	Name      string                `json:"name"`
	Category  string                `json:"category"`
	Status    models.WorkflowStatus `json:"status"`
	StepCount int                   `json:"step_count"`
}

func (e WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

// WorkflowDeleted is published after a workflow has been removed.
type WorkflowDeleted struct {
	BaseEvent
}

func (e WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

// WorkflowStatusChanged is published after a lifecycle transition.
type WorkflowStatusChanged struct {
	BaseEvent

	From models.WorkflowStatus `json:"from"`
	To   models.WorkflowStatus `json:"to"`
}

func (e WorkflowStatusChanged) GetType() EventType {
	return WorkflowStatusChangedEvent
}

// New returns an empty event value for eventType, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case WorkflowSavedEvent:
		return &WorkflowSaved{}, true
	case WorkflowDeletedEvent:
		return &WorkflowDeleted{}, true
	case WorkflowStatusChangedEvent:
		return &WorkflowStatusChanged{}, true
	default:
		return nil, false
	}
}
