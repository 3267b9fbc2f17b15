// Package services provides the application operations behind the builder API.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/atelier/pkg/persistence"
	"github.com/dukex/atelier/pkg/sessions"
	"github.com/dukex/atelier/pkg/templates"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/workflow"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidSortField = persistence.ErrInvalidSortField
	ErrInvalidSortOrder = persistence.ErrInvalidSortOrder
	ErrInvalidStatus    = workflow.ErrInvalidStatus

	// Not Found Errors (404 Not Found).
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
	ErrSessionNotFound  = sessions.ErrSessionNotFound
	ErrTemplateNotFound = templates.ErrTemplateNotFound

	// Business Logic Conflicts (409 Conflict).
	ErrInvalidTransition    = workflow.ErrInvalidTransition
	ErrCannotModifyArchived = errors.New("cannot modify an archived workflow")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		workflow.IsInvalidConfig(err)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		workflow.IsStepNotFound(err) ||
		workflow.IsTriggerNotFound(err)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrCannotModifyArchived) ||
		errors.Is(err, persistence.ErrWorkflowAlreadyExists)
}

// IsStructuralViolation checks if an error carries validation violations (HTTP 422).
func IsStructuralViolation(err error) bool {
	return errors.Is(err, validation.ErrStructuralViolation)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
