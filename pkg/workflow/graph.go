// Package workflow implements the workflow definition graph and the
// definition aggregate that edits, validates, and saves it.
package workflow

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/registry"
	"github.com/google/uuid"
)

const (
	defaultStepNamePrefix = "New step "
	placeholderOriginX    = 100
	placeholderOriginY    = 100
	placeholderSpacingX   = 250
)

// Graph holds the steps and triggers of a workflow. Each step's NextSteps is
// the only stored adjacency; Connections is derived from it on demand.
//
// Graph performs no locking. Callers serialise access.
type Graph struct {
	steps    []*models.Step
	triggers []*models.Trigger
	newID    func() string
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithGraphIDGenerator overrides the id generator used for new steps and triggers.
func WithGraphIDGenerator(generator func() string) GraphOption {
	return func(g *Graph) {
		if generator != nil {
			g.newID = generator
		}
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	graph := &Graph{
		steps:    []*models.Step{},
		triggers: []*models.Trigger{},
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(graph)
	}

	return graph
}

// LoadGraph rebuilds a graph from stored steps and triggers. The inputs are
// copied. Steps without an id get one, repeated step ids keep the first
// occurrence, and NextSteps entries that are self-loops, duplicates, or point
// to unknown steps are dropped.
func LoadGraph(steps []*models.Step, triggers []*models.Trigger, opts ...GraphOption) *Graph {
	graph := NewGraph(opts...)

	seen := make(map[string]bool, len(steps))

	for _, stored := range steps {
		if stored == nil {
			continue
		}

		step := stored.Clone()
		if step.ID == "" {
			step.ID = graph.newID()
		}

		if seen[step.ID] {
			continue
		}

		seen[step.ID] = true

		if step.Config == nil {
			step.Config = registry.DefaultStepConfig(step.Type)
		}

		graph.steps = append(graph.steps, step)
	}

	for _, step := range graph.steps {
		next := make([]string, 0, len(step.NextSteps))

		for _, target := range step.NextSteps {
			if target == step.ID || !seen[target] || slices.Contains(next, target) {
				continue
			}

			next = append(next, target)
		}

		step.NextSteps = next
	}

	for _, stored := range triggers {
		if stored == nil {
			continue
		}

		trigger := stored.Clone()
		if trigger.ID == "" {
			trigger.ID = graph.newID()
		}

		if trigger.Config == nil {
			trigger.Config = registry.DefaultTriggerConfig(trigger.Type)
		}

		graph.triggers = append(graph.triggers, trigger)
	}

	return graph
}

// Steps returns copies of the steps in insertion order.
func (g *Graph) Steps() []*models.Step {
	steps := make([]*models.Step, 0, len(g.steps))
	for _, step := range g.steps {
		steps = append(steps, step.Clone())
	}

	return steps
}

// Triggers returns copies of the triggers in insertion order.
func (g *Graph) Triggers() []*models.Trigger {
	triggers := make([]*models.Trigger, 0, len(g.triggers))
	for _, trigger := range g.triggers {
		triggers = append(triggers, trigger.Clone())
	}

	return triggers
}

// Step returns a copy of the step with the given id.
func (g *Graph) Step(id string) (*models.Step, bool) {
	step := g.findStep(id)
	if step == nil {
		return nil, false
	}

	return step.Clone(), true
}

// Trigger returns a copy of the trigger with the given id.
func (g *Graph) Trigger(id string) (*models.Trigger, bool) {
	trigger := g.findTrigger(id)
	if trigger == nil {
		return nil, false
	}

	return trigger.Clone(), true
}

// StepIndex returns the position of the step in the step collection, or -1.
func (g *Graph) StepIndex(id string) int {
	return slices.IndexFunc(g.steps, func(step *models.Step) bool { return step.ID == id })
}

// Connections projects every step's NextSteps into an edge list, ordered by
// step then by NextSteps position.
func (g *Graph) Connections() []models.Connection {
	connections := make([]models.Connection, 0)

	for _, step := range g.steps {
		for _, target := range step.NextSteps {
			connections = append(connections, models.Connection{Source: step.ID, Target: target})
		}
	}

	return connections
}

// HasConnection reports whether the edge source → target exists.
func (g *Graph) HasConnection(source, target string) bool {
	step := g.findStep(source)

	return step != nil && step.HasNext(target)
}

// AddStep appends a new, unconnected step of the given type with
// registry defaults and returns a copy of it.
func (g *Graph) AddStep(stepType models.StepType) *models.Step {
	number := len(g.steps) + 1

	step := &models.Step{
		ID:     g.newID(),
		Name:   defaultStepNamePrefix + strconv.Itoa(number),
		Type:   stepType,
		Config: registry.DefaultStepConfig(stepType),
		Position: models.Position{
			X: float64(placeholderOriginX + placeholderSpacingX*(number-1)),
			Y: placeholderOriginY,
		},
		NextSteps: []string{},
	}

	g.steps = append(g.steps, step)

	return step.Clone()
}

// RemoveStep deletes a step and every edge touching it. Condition branches
// pointing at the removed step are cleared. Unknown ids are ignored.
func (g *Graph) RemoveStep(id string) {
	index := g.StepIndex(id)
	if index < 0 {
		return
	}

	g.steps = slices.Delete(g.steps, index, index+1)

	for _, step := range g.steps {
		step.NextSteps = slices.DeleteFunc(step.NextSteps, func(target string) bool { return target == id })

		if condition, ok := step.Config.(models.ConditionConfig); ok {
			if condition.TrueStep == id {
				condition.TrueStep = ""
			}

			if condition.FalseStep == id {
				condition.FalseStep = ""
			}

			step.Config = condition
		}
	}
}

// StepUpdate holds the fields of a partial step update. Nil fields are left
// unchanged; Config keys are merged into the existing configuration.
type StepUpdate struct {
	Name     *string
	Position *models.Position
	Config   map[string]any
}

// UpdateStep merges update into the step and returns a copy of the result.
// The step is left unchanged when the merged configuration is rejected.
func (g *Graph) UpdateStep(id string, update StepUpdate) (*models.Step, error) {
	step := g.findStep(id)
	if step == nil {
		return nil, &GraphError{Op: "UpdateStep", ID: id, Err: ErrStepNotFound}
	}

	config := step.Config

	if update.Config != nil {
		merged, err := models.MergeStepConfig(step.Type, step.Config, update.Config)
		if err != nil {
			return nil, &GraphError{Op: "UpdateStep", ID: id, Err: err}
		}

		if err := registry.ValidateStepConfig(merged); err != nil {
			return nil, &GraphError{Op: "UpdateStep", ID: id, Err: err}
		}

		config = merged
	}

	if update.Name != nil {
		step.Name = *update.Name
	}

	if update.Position != nil {
		step.Position = *update.Position
	}

	step.Config = config

	return step.Clone(), nil
}

// AddConnection adds the edge source → target. It returns false without
// changing anything when the edge already exists, when source equals target,
// or when either step is unknown.
func (g *Graph) AddConnection(source, target string) bool {
	if source == target {
		return false
	}

	from := g.findStep(source)
	if from == nil || g.findStep(target) == nil || from.HasNext(target) {
		return false
	}

	from.NextSteps = append(from.NextSteps, target)

	return true
}

// RemoveConnection removes the edge source → target if present.
func (g *Graph) RemoveConnection(source, target string) bool {
	from := g.findStep(source)
	if from == nil || !from.HasNext(target) {
		return false
	}

	from.NextSteps = slices.DeleteFunc(from.NextSteps, func(next string) bool { return next == target })

	return true
}

// AddTrigger appends a trigger of the given type with registry defaults.
func (g *Graph) AddTrigger(triggerType models.TriggerType) *models.Trigger {
	trigger := &models.Trigger{
		ID:     g.newID(),
		Type:   triggerType,
		Config: registry.DefaultTriggerConfig(triggerType),
	}

	g.triggers = append(g.triggers, trigger)

	return trigger.Clone()
}

// TriggerUpdate holds the fields of a partial trigger update. Changing the
// type reseeds the configuration with the new type's defaults before Config
// keys are merged.
type TriggerUpdate struct {
	Type   *models.TriggerType
	Config map[string]any
}

// UpdateTrigger merges update into the trigger and returns a copy of the result.
func (g *Graph) UpdateTrigger(id string, update TriggerUpdate) (*models.Trigger, error) {
	current := g.findTrigger(id)
	if current == nil {
		return nil, &GraphError{Op: "UpdateTrigger", ID: id, Err: ErrTriggerNotFound}
	}

	candidate := current.Clone()

	if update.Type != nil && *update.Type != candidate.Type {
		candidate.Type = *update.Type
		candidate.Config = registry.DefaultTriggerConfig(candidate.Type)
	}

	if candidate.Config == nil {
		candidate.Config = models.TriggerConfig{}
	}

	for key, value := range update.Config {
		candidate.Config[key] = value
	}

	if err := registry.ValidateTriggerConfig(candidate); err != nil {
		return nil, &GraphError{Op: "UpdateTrigger", ID: id, Err: err}
	}

	*current = *candidate

	return current.Clone(), nil
}

// ReplaceTriggers swaps the whole trigger set. It is the only way triggers
// are removed. Nothing changes when any trigger is rejected.
func (g *Graph) ReplaceTriggers(triggers []*models.Trigger) ([]*models.Trigger, error) {
	replacement := make([]*models.Trigger, 0, len(triggers))

	for i, stored := range triggers {
		if stored == nil {
			continue
		}

		trigger := stored.Clone()
		if trigger.ID == "" {
			trigger.ID = g.newID()
		}

		if trigger.Config == nil {
			trigger.Config = registry.DefaultTriggerConfig(trigger.Type)
		}

		if err := registry.ValidateTriggerConfig(trigger); err != nil {
			return nil, &GraphError{Op: "ReplaceTriggers", ID: fmt.Sprintf("#%d", i), Err: err}
		}

		replacement = append(replacement, trigger)
	}

	g.triggers = replacement

	return g.Triggers(), nil
}

func (g *Graph) findStep(id string) *models.Step {
	for _, step := range g.steps {
		if step.ID == id {
			return step
		}
	}

	return nil
}

func (g *Graph) findTrigger(id string) *models.Trigger {
	for _, trigger := range g.triggers {
		if trigger.ID == id {
			return trigger
		}
	}

	return nil
}
