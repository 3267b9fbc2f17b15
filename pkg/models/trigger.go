package models

// TriggerType identifies how a workflow instance is started.
type TriggerType string

const (
	TriggerTypeManual    TriggerType = "manual"
	TriggerTypeScheduled TriggerType = "scheduled"
	TriggerTypeEvent     TriggerType = "event"
	TriggerTypeForm      TriggerType = "form"
	TriggerTypeAPI       TriggerType = "api"
)

// TriggerTypes lists every trigger kind in declaration order.
func TriggerTypes() []TriggerType {
	return []TriggerType{
		TriggerTypeManual,
		TriggerTypeScheduled,
		TriggerTypeEvent,
		TriggerTypeForm,
		TriggerTypeAPI,
	}
}

// IsValid reports whether the trigger type is known.
func (t TriggerType) IsValid() bool {
	switch t {
	case TriggerTypeManual, TriggerTypeScheduled, TriggerTypeEvent, TriggerTypeForm, TriggerTypeAPI:
		return true
	default:
		return false
	}
}

// TriggerConfig is the type-specific trigger configuration, e.g.
// manual {roles}, scheduled {schedule}, event {event}.
type TriggerConfig map[string]any

// Trigger is the entry point of a workflow.
type Trigger struct {
	ID     string        `json:"id"     validate:"required"`
	Type   TriggerType   `json:"type"   validate:"required"`
	Config TriggerConfig `json:"config"`
}

// Clone returns a copy of the trigger with its own config map.
func (t *Trigger) Clone() *Trigger {
	if t == nil {
		return nil
	}

	clone := *t
	clone.Config = cloneMap(t.Config)

	return &clone
}

// Schedule returns the cron expression of a scheduled trigger, if any.
func (t *Trigger) Schedule() string {
	if t.Type != TriggerTypeScheduled {
		return ""
	}

	schedule, _ := t.Config["schedule"].(string)

	return schedule
}

func cloneMap(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}

	clone := make(map[string]any, len(source))
	for key, value := range source {
		clone[key] = cloneValue(value)
	}

	return clone
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case TriggerConfig:
		return TriggerConfig(cloneMap(v))
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = cloneValue(v[i])
		}

		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}
