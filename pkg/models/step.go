package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// StepType identifies the kind of work a step performs.
type StepType string

const (
	StepTypeApproval     StepType = "approval"
	StepTypeNotification StepType = "notification"
	StepTypeTask         StepType = "task"
	StepTypeCondition    StepType = "condition"
	StepTypeDelay        StepType = "delay"
	StepTypeIntegration  StepType = "integration"
	StepTypeDocument     StepType = "document"
)

// StepTypes lists every step kind in declaration order.
func StepTypes() []StepType {
	return []StepType{
		StepTypeApproval,
		StepTypeNotification,
		StepTypeTask,
		StepTypeCondition,
		StepTypeDelay,
		StepTypeIntegration,
		StepTypeDocument,
	}
}

// IsValid reports whether the step type is one of the seven known kinds.
func (t StepType) IsValid() bool {
	return slices.Contains(StepTypes(), t)
}

// Position is an opaque canvas coordinate. The graph never interprets it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Step is a unit of process work inside a workflow.
type Step struct {
	ID        string     `json:"id"        validate:"required"`
	Name      string     `json:"name"`
	Type      StepType   `json:"type"      validate:"required"`
	Config    StepConfig `json:"config"`
	Position  Position   `json:"position"`
	NextSteps []string   `json:"nextSteps"`
}

// HasNext reports whether the step feeds directly into target.
func (s *Step) HasNext(target string) bool {
	return slices.Contains(s.NextSteps, target)
}

// Clone returns a deep copy of the step.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}

	clone := *s
	clone.NextSteps = append([]string{}, s.NextSteps...)

	if s.Config != nil {
		clone.Config = s.Config.clone()
	}

	return &clone
}

// UnmarshalJSON decodes the step and picks the config variant from its type.
func (s *Step) UnmarshalJSON(data []byte) error {
	type stepAlias Step

	var raw struct {
		stepAlias

		Config json.RawMessage `json:"config"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	config, err := DecodeStepConfig(raw.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("step %s: %w", raw.ID, err)
	}

	*s = Step(raw.stepAlias)
	s.Config = config

	if s.NextSteps == nil {
		s.NextSteps = []string{}
	}

	return nil
}
