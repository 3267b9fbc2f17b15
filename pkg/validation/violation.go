package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStructuralViolation is matched by every ViolationError.
var ErrStructuralViolation = errors.New("workflow has structural violations")

// Code identifies a structural rule.
type Code string

const (
	CodeNameRequired     Code = "name_required"
	CodeCategoryRequired Code = "category_required"
	CodeStepsRequired    Code = "steps_required"
	CodeTriggersRequired Code = "triggers_required"
	CodeOrphanSteps      Code = "orphan_steps"
)

// Violation is a single failed rule, with a message ready for display.
type Violation struct {
	Code    Code   `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

func (v Violation) String() string {
	return v.Message
}

// Messages returns the display messages of violations in order.
func Messages(violations []Violation) []string {
	messages := make([]string, 0, len(violations))
	for _, violation := range violations {
		messages = append(messages, violation.Message)
	}

	return messages
}

// ViolationError carries the violations that prevented an operation.
type ViolationError struct {
	Violations []Violation
}

// NewViolationError wraps violations, returning nil when there are none.
func NewViolationError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}

	return &ViolationError{Violations: violations}
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrStructuralViolation, strings.Join(Messages(e.Violations), "; "))
}

func (e *ViolationError) Unwrap() error {
	return ErrStructuralViolation
}

// AsViolations extracts the violation list from err, if it carries one.
func AsViolations(err error) ([]Violation, bool) {
	var violationErr *ViolationError
	if !errors.As(err, &violationErr) {
		return nil, false
	}

	return violationErr.Violations, true
}
