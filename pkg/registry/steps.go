// Package registry provides the step and trigger type catalogue: default
// configurations, configuration schemas, and shape validation.
package registry

import (
	"github.com/dukex/atelier/pkg/models"
)

type stepDefinition struct {
	name        string
	description string
	defaults    func() models.StepConfig
}

var stepDefinitions = map[models.StepType]stepDefinition{
	models.StepTypeApproval: {
		name:        "Approbation",
		description: "Demande la validation d'un ou plusieurs approbateurs",
		defaults: func() models.StepConfig {
			return models.ApprovalConfig{Approvers: []string{}, TimeoutDays: 3}
		},
	},
	models.StepTypeNotification: {
		name:        "Notification",
		description: "Envoie un message aux destinataires choisis",
		defaults: func() models.StepConfig {
			return models.NotificationConfig{Channel: "email", Template: "", Recipients: []string{}}
		},
	},
	models.StepTypeTask: {
		name:        "Tâche",
		description: "Assigne une tâche à un collaborateur",
		defaults: func() models.StepConfig {
			return models.TaskConfig{Assignee: "", DueDate: "3 jours", Description: ""}
		},
	},
	models.StepTypeCondition: {
		name:        "Condition",
		description: "Oriente le flux selon une condition",
		defaults: func() models.StepConfig {
			return models.ConditionConfig{Condition: "", TrueStep: "", FalseStep: ""}
		},
	},
	models.StepTypeDelay: {
		name:        "Délai",
		description: "Attend une durée avant de poursuivre",
		defaults: func() models.StepConfig {
			return models.DelayConfig{Duration: 1, Unit: "days"}
		},
	},
	models.StepTypeIntegration: {
		name:        "Intégration",
		description: "Appelle un service externe",
		defaults: func() models.StepConfig {
			return models.IntegrationConfig{Service: "", Action: "", Parameters: map[string]any{}}
		},
	},
	models.StepTypeDocument: {
		name:        "Document",
		description: "Génère un document à partir d'un modèle",
		defaults: func() models.StepConfig {
			return models.DocumentConfig{Template: "", OutputFormat: "pdf"}
		},
	},
}

// DefaultStepConfig returns a fresh default configuration for stepType.
// Unknown types get an empty configuration. Each call returns new slices and maps.
func DefaultStepConfig(stepType models.StepType) models.StepConfig {
	definition, ok := stepDefinitions[stepType]
	if !ok {
		return models.RawConfig{}
	}

	return definition.defaults()
}

// IsKnownStepType reports whether stepType has a registered definition.
func IsKnownStepType(stepType models.StepType) bool {
	_, ok := stepDefinitions[stepType]

	return ok
}

// StepComponent describes a single step type for the builder palette.
func StepComponent(stepType models.StepType) (*models.RegisteredComponent, bool) {
	definition, ok := stepDefinitions[stepType]
	if !ok {
		return nil, false
	}

	return &models.RegisteredComponent{
		Type:          string(stepType),
		Name:          definition.name,
		Description:   definition.description,
		Schema:        StepSchema(stepType),
		DefaultConfig: definition.defaults(),
	}, true
}

// StepComponents lists every step type in declaration order.
func StepComponents() []*models.RegisteredComponent {
	components := make([]*models.RegisteredComponent, 0, len(stepDefinitions))

	for _, stepType := range models.StepTypes() {
		component, ok := StepComponent(stepType)
		if ok {
			components = append(components, component)
		}
	}

	return components
}
