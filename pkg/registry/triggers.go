package registry

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/robfig/cron/v3"
)

// ErrInvalidTriggerConfig indicates a trigger configuration that cannot be used.
var ErrInvalidTriggerConfig = errors.New("invalid trigger configuration")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type triggerDefinition struct {
	name        string
	description string
	defaults    func() models.TriggerConfig
}

var triggerDefinitions = map[models.TriggerType]triggerDefinition{
	models.TriggerTypeManual: {
		name:        "Manuel",
		description: "Lancé par un utilisateur habilité",
		defaults:    func() models.TriggerConfig { return models.TriggerConfig{"roles": []any{}} },
	},
	models.TriggerTypeScheduled: {
		name:        "Planifié",
		description: "Lancé selon une expression cron",
		defaults:    func() models.TriggerConfig { return models.TriggerConfig{"schedule": ""} },
	},
	models.TriggerTypeEvent: {
		name:        "Événement",
		description: "Lancé par un événement métier",
		defaults:    func() models.TriggerConfig { return models.TriggerConfig{"event": ""} },
	},
	models.TriggerTypeForm: {
		name:        "Formulaire",
		description: "Lancé à la soumission d'un formulaire",
		defaults:    func() models.TriggerConfig { return models.TriggerConfig{"formId": ""} },
	},
	models.TriggerTypeAPI: {
		name:        "API",
		description: "Lancé par un appel d'API",
		defaults:    func() models.TriggerConfig { return models.TriggerConfig{"endpoint": ""} },
	},
}

// DefaultTriggerConfig returns a fresh default configuration for triggerType.
// Unknown types get an empty configuration.
func DefaultTriggerConfig(triggerType models.TriggerType) models.TriggerConfig {
	definition, ok := triggerDefinitions[triggerType]
	if !ok {
		return models.TriggerConfig{}
	}

	return definition.defaults()
}

// TriggerComponents lists every trigger type in declaration order.
func TriggerComponents() []*models.RegisteredComponent {
	components := make([]*models.RegisteredComponent, 0, len(triggerDefinitions))

	for _, triggerType := range models.TriggerTypes() {
		definition := triggerDefinitions[triggerType]
		components = append(components, &models.RegisteredComponent{
			Type:          string(triggerType),
			Name:          definition.name,
			Description:   definition.description,
			DefaultConfig: definition.defaults(),
		})
	}

	return components
}

// ValidateTriggerConfig checks a trigger's configuration. A scheduled trigger
// with a non-empty schedule must hold a 5-field cron expression.
func ValidateTriggerConfig(trigger *models.Trigger) error {
	if trigger.Type != models.TriggerTypeScheduled {
		return nil
	}

	raw, present := trigger.Config["schedule"]
	if !present || raw == nil {
		return nil
	}

	schedule, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%w: schedule must be a string", ErrInvalidTriggerConfig)
	}

	if schedule == "" {
		return nil
	}

	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("%w: schedule %q: %w", ErrInvalidTriggerConfig, schedule, err)
	}

	return nil
}

// NextRun returns the next activation time of a scheduled trigger after the
// reference time. ok is false when the trigger has no usable schedule.
func NextRun(trigger *models.Trigger, after time.Time) (time.Time, bool) {
	expression := trigger.Schedule()
	if expression == "" {
		return time.Time{}, false
	}

	schedule, err := cronParser.Parse(expression)
	if err != nil {
		return time.Time{}, false
	}

	return schedule.Next(after), true
}
