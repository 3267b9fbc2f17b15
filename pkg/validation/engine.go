// Package validation checks a workflow definition against the structural
// rules that gate saving and activation.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dukex/atelier/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Subject is the read-only view of a workflow the rules need.
type Subject interface {
	Name() string
	Category() string
	Steps() []*models.Step
	Triggers() []*models.Trigger
	Connections() []models.Connection
}

// metadata holds the fields checked by struct rules.
type metadata struct {
	Name     string            `validate:"required"`
	Category string            `validate:"required"`
	Steps    []*models.Step    `validate:"gt=0"`
	Triggers []*models.Trigger `validate:"gt=0"`
}

type fieldRule struct {
	field   string
	code    Code
	message string
}

// Rule order is the order violations are reported in.
var fieldRules = []fieldRule{
	{field: "Name", code: CodeNameRequired, message: "Le nom du workflow est requis"},
	{field: "Category", code: CodeCategoryRequired, message: "La catégorie est requise"},
	{field: "Steps", code: CodeStepsRequired, message: "Au moins une étape est requise"},
	{field: "Triggers", code: CodeTriggersRequired, message: "Au moins un déclencheur est requis"},
}

var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validate evaluates every rule and returns the failures in a fixed order:
// name, category, steps, triggers, orphan steps. An empty result means the
// workflow may be saved.
func Validate(subject Subject) []Violation {
	violations := make([]Violation, 0)

	steps := subject.Steps()

	failed, err := failedFields(metadata{
		Name:     strings.TrimSpace(subject.Name()),
		Category: strings.TrimSpace(subject.Category()),
		Steps:    steps,
		Triggers: subject.Triggers(),
	})
	if err != nil {
		// Only reachable with a broken rule set; surface every rule as failed.
		failed = map[string]bool{"Name": true, "Category": true, "Steps": true, "Triggers": true}
	}

	for _, rule := range fieldRules {
		if failed[rule.field] {
			violations = append(violations, Violation{
				Code:    rule.code,
				Field:   strings.ToLower(rule.field[:1]) + rule.field[1:],
				Message: rule.message,
			})
		}
	}

	if orphans := OrphanSteps(steps, subject.Connections()); len(orphans) > 0 {
		violations = append(violations, Violation{
			Code:    CodeOrphanSteps,
			Field:   "steps",
			Message: fmt.Sprintf("%d étape(s) orpheline(s) : aucune connexion entrante", len(orphans)),
			Count:   len(orphans),
		})
	}

	return violations
}

func failedFields(subject metadata) (map[string]bool, error) {
	failed := map[string]bool{}

	err := validate().Struct(subject)
	if err == nil {
		return failed, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	for _, fieldErr := range validationErrors {
		failed[fieldErr.Field()] = true
	}

	return failed, nil
}

// OrphanSteps returns the ids of steps, other than the first, that no
// connection targets. Reachability from the first step is not checked.
func OrphanSteps(steps []*models.Step, connections []models.Connection) []string {
	targeted := make(map[string]bool, len(connections))
	for _, connection := range connections {
		targeted[connection.Target] = true
	}

	orphans := make([]string, 0)

	for index, step := range steps {
		if index == 0 {
			continue
		}

		if !targeted[step.ID] {
			orphans = append(orphans, step.ID)
		}
	}

	return orphans
}

// IsValid reports whether subject passes every rule.
func IsValid(subject Subject) bool {
	return len(Validate(subject)) == 0
}
