package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dukex/atelier/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// Enumerations accepted by the step configuration schemas.
var (
	NotificationChannels = []any{"email", "sms", "slack", "in_app"}
	DelayUnits           = []any{"minutes", "hours", "days", "weeks"}
	DocumentFormats      = []any{"pdf", "docx", "html"}
)

// ConfigError reports a step configuration that does not match its type's schema.
type ConfigError struct {
	StepType models.StepType
	Details  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.StepType, strings.Join(e.Details, "; "))
}

func (e *ConfigError) Unwrap() error {
	return models.ErrInvalidStepConfig
}

func float(v float64) *float64 { return &v }

func stringProperty(description string) *models.Property {
	return &models.Property{Type: "string", Description: description}
}

func stringList(description string) *models.Property {
	return &models.Property{Type: "array", Description: description, Items: &models.Property{Type: "string"}}
}

func objectSchema(title string, properties map[string]*models.Property) *models.JSONSchema {
	return &models.JSONSchema{
		Type:       "object",
		Title:      title,
		Properties: properties,
	}
}

// StepSchema returns the configuration schema of stepType, or nil for unknown types.
func StepSchema(stepType models.StepType) *models.JSONSchema {
	switch stepType {
	case models.StepTypeApproval:
		return objectSchema("approval", map[string]*models.Property{
			"approvers":   stringList("Identifiants des approbateurs"),
			"timeoutDays": {Type: "integer", Description: "Délai de réponse en jours", Minimum: float(1), Default: 3},
		})
	case models.StepTypeNotification:
		return objectSchema("notification", map[string]*models.Property{
			"channel":    {Type: "string", Description: "Canal d'envoi", Enum: NotificationChannels, Default: "email"},
			"template":   stringProperty("Modèle de message"),
			"recipients": stringList("Destinataires"),
		})
	case models.StepTypeTask:
		return objectSchema("task", map[string]*models.Property{
			"assignee":    stringProperty("Collaborateur assigné"),
			"dueDate":     stringProperty("Échéance, par exemple \"3 jours\""),
			"description": stringProperty("Description de la tâche"),
		})
	case models.StepTypeCondition:
		return objectSchema("condition", map[string]*models.Property{
			"condition": stringProperty("Expression évaluée"),
			"trueStep":  stringProperty("Étape suivante si vrai"),
			"falseStep": stringProperty("Étape suivante si faux"),
		})
	case models.StepTypeDelay:
		return objectSchema("delay", map[string]*models.Property{
			"duration": {Type: "integer", Description: "Durée d'attente", Minimum: float(0), Default: 1},
			"unit":     {Type: "string", Description: "Unité de temps", Enum: DelayUnits, Default: "days"},
		})
	case models.StepTypeIntegration:
		return objectSchema("integration", map[string]*models.Property{
			"service":    stringProperty("Service externe"),
			"action":     stringProperty("Action appelée"),
			"parameters": {Type: "object", Description: "Paramètres transmis"},
		})
	case models.StepTypeDocument:
		return objectSchema("document", map[string]*models.Property{
			"template":     stringProperty("Modèle de document"),
			"outputFormat": {Type: "string", Description: "Format de sortie", Enum: DocumentFormats, Default: "pdf"},
		})
	default:
		return nil
	}
}

var compiledSchemas = sync.OnceValues(func() (map[models.StepType]*gojsonschema.Schema, error) {
	compiled := make(map[models.StepType]*gojsonschema.Schema, len(stepDefinitions))

	for _, stepType := range models.StepTypes() {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(StepSchema(stepType)))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", stepType, err)
		}

		compiled[stepType] = schema
	}

	return compiled, nil
})

// ValidateStepConfig checks the shape of config against its type's schema:
// field types, enumerations, and numeric bounds. Empty values are accepted;
// completeness is not checked here.
func ValidateStepConfig(config models.StepConfig) error {
	if config == nil {
		return errors.New("step configuration is nil")
	}

	schemas, err := compiledSchemas()
	if err != nil {
		return err
	}

	schema, ok := schemas[config.StepType()]
	if !ok {
		// Unknown step types carry free-form configuration.
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("failed to validate %s configuration: %w", config.StepType(), err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		details = append(details, resultErr.String())
	}

	return &ConfigError{StepType: config.StepType(), Details: details}
}
