package workflow

import (
	"fmt"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/google/uuid"
)

// Definition is a workflow under construction: metadata, lifecycle status,
// and the step graph. It is the unit that is validated and saved.
type Definition struct {
	id           string
	name         string
	description  string
	category     string
	status       models.WorkflowStatus
	createdBy    string
	createdDate  time.Time
	lastModified time.Time
	stats        models.ExecutionStats
	persisted    bool

	graph *Graph
	clock func() time.Time
	newID func() string
}

// Option configures a Definition.
type Option func(*Definition)

// WithClock overrides the time source used for creation and modification dates.
func WithClock(clock func() time.Time) Option {
	return func(d *Definition) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithIDGenerator overrides the id generator for the workflow, its steps and triggers.
func WithIDGenerator(generator func() string) Option {
	return func(d *Definition) {
		if generator != nil {
			d.newID = generator
		}
	}
}

// WithCreator records who created the workflow. It only applies to new definitions.
func WithCreator(createdBy string) Option {
	return func(d *Definition) {
		if !d.persisted {
			d.createdBy = createdBy
		}
	}
}

func newDefinition(opts []Option) *Definition {
	definition := &Definition{
		status: models.WorkflowStatusDraft,
		clock:  time.Now,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(definition)
	}

	return definition
}

// NewDefinition creates an empty draft with a single manual trigger.
func NewDefinition(opts ...Option) *Definition {
	definition := newDefinition(opts)
	definition.graph = NewGraph(WithGraphIDGenerator(definition.newID))
	definition.graph.AddTrigger(models.TriggerTypeManual)

	return definition
}

// FromPersisted rebuilds a definition from a stored record. Connections are
// derived again from the steps' NextSteps.
func FromPersisted(record *models.WorkflowRecord, opts ...Option) (*Definition, error) {
	if record == nil {
		return nil, ErrNilRecord
	}

	status := record.Status
	if status == "" {
		status = models.WorkflowStatusDraft
	}

	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	definition := &Definition{
		id:           record.ID,
		name:         record.Name,
		description:  record.Description,
		category:     record.Category,
		status:       status,
		createdBy:    record.CreatedBy,
		createdDate:  record.CreatedDate,
		lastModified: record.LastModified,
		stats:        record.ExecutionStats,
		persisted:    record.ID != "",
		clock:        time.Now,
		newID:        uuid.NewString,
	}

	for _, opt := range opts {
		opt(definition)
	}

	definition.graph = LoadGraph(record.Steps, record.Triggers, WithGraphIDGenerator(definition.newID))

	return definition, nil
}

func (d *Definition) ID() string                    { return d.id }
func (d *Definition) Name() string                  { return d.name }
func (d *Definition) Description() string           { return d.description }
func (d *Definition) Category() string              { return d.category }
func (d *Definition) Status() models.WorkflowStatus { return d.status }
func (d *Definition) CreatedBy() string             { return d.createdBy }
func (d *Definition) CreatedDate() time.Time        { return d.createdDate }
func (d *Definition) LastModified() time.Time       { return d.lastModified }
func (d *Definition) Stats() models.ExecutionStats  { return d.stats }

// IsNew reports whether the definition has never been saved.
func (d *Definition) IsNew() bool {
	return !d.persisted
}

// Graph exposes the editing operations on steps, connections, and triggers.
func (d *Definition) Graph() *Graph {
	return d.graph
}

func (d *Definition) Steps() []*models.Step            { return d.graph.Steps() }
func (d *Definition) Triggers() []*models.Trigger      { return d.graph.Triggers() }
func (d *Definition) Connections() []models.Connection { return d.graph.Connections() }

func (d *Definition) SetName(name string) {
	d.name = name
}

func (d *Definition) SetDescription(description string) {
	d.description = description
}

func (d *Definition) SetCategory(category string) {
	d.category = category
}

// SetStatus sets the status without checking lifecycle rules. Use Transition
// for user-driven changes.
func (d *Definition) SetStatus(status models.WorkflowStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	d.status = status

	return nil
}

// Validate runs the structural rules against the current state.
func (d *Definition) Validate() []validation.Violation {
	return validation.Validate(d)
}

// ToPersistablePayload builds the record to store. A definition that was
// never saved gets a new id and creation date; otherwise the original id,
// creator, and creation date are kept. LastModified is always refreshed.
// The definition itself is not modified.
func (d *Definition) ToPersistablePayload() *models.WorkflowRecord {
	now := d.clock().UTC()

	record := &models.WorkflowRecord{
		ID:             d.id,
		Name:           d.name,
		Description:    d.description,
		Category:       d.category,
		Status:         d.status,
		Steps:          d.graph.Steps(),
		Triggers:       d.graph.Triggers(),
		CreatedBy:      d.createdBy,
		CreatedDate:    d.createdDate,
		LastModified:   now,
		ExecutionStats: d.stats,
	}

	if !d.persisted {
		record.ID = d.newID()
		record.CreatedDate = now
	}

	return record
}

// Save validates the definition and, when it passes, returns the record to
// hand to persistence and marks the definition as saved. When it fails the
// violations are returned and nothing changes, so no id is minted.
func (d *Definition) Save() (*models.WorkflowRecord, []validation.Violation) {
	if violations := d.Validate(); len(violations) > 0 {
		return nil, violations
	}

	record := d.ToPersistablePayload()
	d.Acknowledge(record)

	return record, nil
}

// Acknowledge adopts the identity and dates of a stored record, such as the
// one returned by a repository after create.
func (d *Definition) Acknowledge(record *models.WorkflowRecord) {
	if record == nil {
		return
	}

	d.id = record.ID
	d.createdBy = record.CreatedBy
	d.createdDate = record.CreatedDate
	d.lastModified = record.LastModified
	d.stats = record.ExecutionStats
	d.persisted = record.ID != ""
}

var transitions = map[models.WorkflowStatus][]models.WorkflowStatus{
	models.WorkflowStatusDraft:  {models.WorkflowStatusActive, models.WorkflowStatusArchived},
	models.WorkflowStatusActive: {models.WorkflowStatusPaused, models.WorkflowStatusDraft, models.WorkflowStatusArchived},
	models.WorkflowStatusPaused: {models.WorkflowStatusActive, models.WorkflowStatusDraft, models.WorkflowStatusArchived},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to models.WorkflowStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// Transition moves the workflow to a new status. Archived is terminal, and
// activation requires the definition to pass validation.
func (d *Definition) Transition(to models.WorkflowStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	if !CanTransition(d.status, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, d.status, to)
	}

	if to == models.WorkflowStatusActive {
		if err := validation.NewViolationError(d.Validate()); err != nil {
			return err
		}
	}

	d.status = to

	return nil
}
