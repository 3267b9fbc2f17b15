package validation

import (
	"errors"
	"testing"

	"github.com/dukex/atelier/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subject struct {
	name        string
	category    string
	steps       []*models.Step
	triggers    []*models.Trigger
	connections []models.Connection
}

func (s subject) Name() string                     { return s.name }
func (s subject) Category() string                 { return s.category }
func (s subject) Steps() []*models.Step            { return s.steps }
func (s subject) Triggers() []*models.Trigger      { return s.triggers }
func (s subject) Connections() []models.Connection { return s.connections }

func steps(ids ...string) []*models.Step {
	result := make([]*models.Step, 0, len(ids))
	for _, id := range ids {
		result = append(result, &models.Step{ID: id, Type: models.StepTypeTask})
	}

	return result
}

var manual = []*models.Trigger{{ID: "t1", Type: models.TriggerTypeManual}}

func codes(violations []Violation) []Code {
	result := make([]Code, 0, len(violations))
	for _, violation := range violations {
		result = append(result, violation.Code)
	}

	return result
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject subject
		want    []Code
	}{
		{
			name: "valid chain",
			subject: subject{
				name: "Onboarding", category: "hr", steps: steps("a", "b", "c"), triggers: manual,
				connections: []models.Connection{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}},
			},
			want: []Code{},
		},
		{
			name:    "single step needs no connection",
			subject: subject{name: "Relance", category: "finance", steps: steps("a"), triggers: manual},
			want:    []Code{},
		},
		{
			name:    "everything missing",
			subject: subject{},
			want:    []Code{CodeNameRequired, CodeCategoryRequired, CodeStepsRequired, CodeTriggersRequired},
		},
		{
			name:    "category only",
			subject: subject{category: "admin"},
			want:    []Code{CodeNameRequired, CodeStepsRequired, CodeTriggersRequired},
		},
		{
			name:    "whitespace name",
			subject: subject{name: "   ", category: "hr", steps: steps("a"), triggers: manual},
			want:    []Code{CodeNameRequired},
		},
		{
			name:    "whitespace category",
			subject: subject{name: "Relance", category: " \t", steps: steps("a"), triggers: manual},
			want:    []Code{CodeCategoryRequired},
		},
		{
			name: "orphans after missing metadata",
			subject: subject{
				category: "hr", steps: steps("a", "b", "c"),
			},
			want: []Code{CodeNameRequired, CodeTriggersRequired, CodeOrphanSteps},
		},
		{
			name: "first step is never an orphan",
			subject: subject{
				name: "Devis", category: "commercial", steps: steps("a", "b"), triggers: manual,
				connections: []models.Connection{{Source: "b", Target: "b"}},
			},
			want: []Code{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate(tt.subject)))
		})
	}
}

func TestValidate_OnlyNameCategoryAndTriggers(t *testing.T) {
	violations := Validate(subject{steps: steps("a")})

	require.Len(t, violations, 3)
	assert.Equal(t, []string{
		"Le nom du workflow est requis",
		"La catégorie est requise",
		"Au moins un déclencheur est requis",
	}, Messages(violations))
	assert.Equal(t, "name", violations[0].Field)
	assert.Equal(t, "triggers", violations[2].Field)
}

func TestValidate_OrphanCount(t *testing.T) {
	violations := Validate(subject{
		name: "Onboarding", category: "hr", steps: steps("a", "b", "c", "d"), triggers: manual,
		connections: []models.Connection{{Source: "a", Target: "b"}},
	})

	require.Len(t, violations, 1)
	assert.Equal(t, CodeOrphanSteps, violations[0].Code)
	assert.Equal(t, 2, violations[0].Count)
	assert.Equal(t, "2 étape(s) orpheline(s) : aucune connexion entrante", violations[0].Message)
}

func TestOrphanSteps(t *testing.T) {
	orphans := OrphanSteps(steps("a", "b", "c"), []models.Connection{{Source: "a", Target: "c"}})

	assert.Equal(t, []string{"b"}, orphans)
	assert.Empty(t, OrphanSteps(nil, nil))
}

func TestViolationError(t *testing.T) {
	assert.NoError(t, NewViolationError(nil))

	violations := Validate(subject{})
	err := NewViolationError(violations)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructuralViolation))
	assert.Contains(t, err.Error(), "Le nom du workflow est requis")

	extracted, ok := AsViolations(err)
	require.True(t, ok)
	assert.Equal(t, violations, extracted)

	_, ok = AsViolations(errors.New("boom"))
	assert.False(t, ok)
}
