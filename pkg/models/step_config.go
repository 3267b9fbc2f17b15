package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidStepConfig indicates a config that cannot be decoded into its step variant.
	ErrInvalidStepConfig = errors.New("invalid step configuration")

	// ErrUnknownConfigField indicates a partial config naming a field the variant does not have.
	ErrUnknownConfigField = errors.New("unknown step configuration field")
)

// StepConfig is the tagged union of per-type step configurations.
// The set of variants is closed: only types in this package implement it.
type StepConfig interface {
	StepType() StepType
	clone() StepConfig
}

// ApprovalConfig configures an approval step.
type ApprovalConfig struct {
	Approvers   []string `json:"approvers"`
	TimeoutDays int      `json:"timeoutDays"`
}

// NotificationConfig configures a notification step.
type NotificationConfig struct {
	Channel    string   `json:"channel"`
	Template   string   `json:"template"`
	Recipients []string `json:"recipients"`
}

// TaskConfig configures a task step. DueDate is a free-form label such as "3 jours".
type TaskConfig struct {
	Assignee    string `json:"assignee"`
	DueDate     string `json:"dueDate"`
	Description string `json:"description"`
}

// ConditionConfig configures a conditional branch. TrueStep and FalseStep hold step ids.
type ConditionConfig struct {
	Condition string `json:"condition"`
	TrueStep  string `json:"trueStep"`
	FalseStep string `json:"falseStep"`
}

// DelayConfig configures a delay step.
type DelayConfig struct {
	Duration int    `json:"duration"`
	Unit     string `json:"unit"`
}

// IntegrationConfig configures a call to an external integration.
type IntegrationConfig struct {
	Service    string         `json:"service"`
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// DocumentConfig configures a document generation step.
type DocumentConfig struct {
	Template     string `json:"template"`
	OutputFormat string `json:"outputFormat"`
}

// RawConfig holds the configuration of a step whose type is not known.
type RawConfig map[string]any

func (ApprovalConfig) StepType() StepType     { return StepTypeApproval }
func (NotificationConfig) StepType() StepType { return StepTypeNotification }
func (TaskConfig) StepType() StepType         { return StepTypeTask }
func (ConditionConfig) StepType() StepType    { return StepTypeCondition }
func (DelayConfig) StepType() StepType        { return StepTypeDelay }
func (IntegrationConfig) StepType() StepType  { return StepTypeIntegration }
func (DocumentConfig) StepType() StepType     { return StepTypeDocument }
func (RawConfig) StepType() StepType          { return "" }

func (c ApprovalConfig) clone() StepConfig {
	c.Approvers = append([]string{}, c.Approvers...)

	return c
}

func (c NotificationConfig) clone() StepConfig {
	c.Recipients = append([]string{}, c.Recipients...)

	return c
}

func (c TaskConfig) clone() StepConfig      { return c }
func (c ConditionConfig) clone() StepConfig { return c }
func (c DelayConfig) clone() StepConfig     { return c }
func (c DocumentConfig) clone() StepConfig  { return c }

func (c IntegrationConfig) clone() StepConfig {
	c.Parameters = cloneMap(c.Parameters)
	if c.Parameters == nil {
		c.Parameters = map[string]any{}
	}

	return c
}

func (c RawConfig) clone() StepConfig {
	clone := cloneMap(c)
	if clone == nil {
		clone = map[string]any{}
	}

	return RawConfig(clone)
}

// CloneStepConfig returns an independent copy of config.
func CloneStepConfig(config StepConfig) StepConfig {
	if config == nil {
		return nil
	}

	return config.clone()
}

// DecodeStepConfig decodes a JSON config into the variant matching stepType.
// Unknown fields are ignored so stored documents stay loadable.
func DecodeStepConfig(stepType StepType, data []byte) (StepConfig, error) {
	return decodeStepConfig(stepType, data, false)
}

// MergeStepConfig shallow-merges partial into config, key by key, and returns
// a new value of the same variant. The original config is not modified.
func MergeStepConfig(stepType StepType, config StepConfig, partial map[string]any) (StepConfig, error) {
	base := map[string]any{}

	if config != nil {
		encoded, err := json.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStepConfig, err)
		}

		if err := json.Unmarshal(encoded, &base); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStepConfig, err)
		}
	}

	for key, value := range partial {
		base[key] = value
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStepConfig, err)
	}

	return decodeStepConfig(stepType, merged, true)
}

func decodeStepConfig(stepType StepType, data []byte, strict bool) (StepConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		data = []byte("{}")
	}

	switch stepType {
	case StepTypeApproval:
		return decodeVariant[ApprovalConfig](data, strict)
	case StepTypeNotification:
		return decodeVariant[NotificationConfig](data, strict)
	case StepTypeTask:
		return decodeVariant[TaskConfig](data, strict)
	case StepTypeCondition:
		return decodeVariant[ConditionConfig](data, strict)
	case StepTypeDelay:
		return decodeVariant[DelayConfig](data, strict)
	case StepTypeIntegration:
		return decodeVariant[IntegrationConfig](data, strict)
	case StepTypeDocument:
		return decodeVariant[DocumentConfig](data, strict)
	default:
		raw := RawConfig{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStepConfig, err)
		}

		return raw, nil
	}
}

func decodeVariant[T StepConfig](data []byte, strict bool) (StepConfig, error) {
	var config T

	decoder := json.NewDecoder(bytes.NewReader(data))
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(&config); err != nil {
		if strict && strings.Contains(err.Error(), "unknown field") {
			return nil, fmt.Errorf("%w: %w", ErrUnknownConfigField, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidStepConfig, err)
	}

	return normalize(config), nil
}

// normalize replaces nil slices with empty ones so configs serialise as [] rather than null.
func normalize(config StepConfig) StepConfig {
	switch c := config.(type) {
	case ApprovalConfig:
		if c.Approvers == nil {
			c.Approvers = []string{}
		}

		return c
	case NotificationConfig:
		if c.Recipients == nil {
			c.Recipients = []string{}
		}

		return c
	case IntegrationConfig:
		if c.Parameters == nil {
			c.Parameters = map[string]any{}
		}

		return c
	default:
		return config
	}
}
