package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/registry"
)

var (
	// ErrStepNotFound indicates an update targeting a step id that does not exist.
	ErrStepNotFound = errors.New("step not found")

	// ErrTriggerNotFound indicates an update targeting a trigger id that does not exist.
	ErrTriggerNotFound = errors.New("trigger not found")

	// ErrInvalidStepConfig indicates a step configuration rejected by its type's schema.
	ErrInvalidStepConfig = models.ErrInvalidStepConfig

	// ErrInvalidTriggerConfig indicates a trigger configuration that cannot be used.
	ErrInvalidTriggerConfig = registry.ErrInvalidTriggerConfig

	// ErrInvalidStatus indicates a status outside draft, active, paused, archived.
	ErrInvalidStatus = errors.New("invalid workflow status")

	// ErrInvalidTransition indicates a lifecycle change that is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNilRecord indicates a missing persisted record.
	ErrNilRecord = errors.New("workflow record is nil")
)

// GraphError wraps a graph operation failure with the operation and element id.
type GraphError struct {
	Op  string // Operation being performed (e.g., "UpdateStep")
	ID  string // Step or trigger id
	Err error  // Underlying error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for graph errors.
func (e *GraphError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsTriggerNotFound checks if an error indicates a trigger was not found.
func IsTriggerNotFound(err error) bool {
	return errors.Is(err, ErrTriggerNotFound)
}

// IsInvalidConfig checks if an error indicates a rejected step or trigger configuration.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidStepConfig) ||
		errors.Is(err, models.ErrUnknownConfigField) ||
		errors.Is(err, ErrInvalidTriggerConfig)
}
