package web

import (
	"errors"

	"github.com/dukex/atelier/pkg/services"
	"github.com/dukex/atelier/pkg/validation"
	"github.com/dukex/atelier/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// ViolationProblem is a 422 problem that lists the structural violations.
type ViolationProblem struct {
	*problems.Problem

	Violations []validation.Violation `json:"violations"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func unprocessable(c fiber.Ctx, violations []validation.Violation) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("structural_violation").
		WithDetail("Le workflow ne peut pas être enregistré")

	return c.Status(fiber.StatusUnprocessableEntity).JSON(ViolationProblem{
		Problem:    problem,
		Violations: violations,
	})
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsStructuralViolation(err):
		violations, _ := validation.AsViolations(err)

		return unprocessable(c, violations)

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, services.ErrWorkflowNotFound):
		return notFound(c, "workflow_not_found", "workflow not found")

	case errors.Is(err, services.ErrSessionNotFound):
		return notFound(c, "session_not_found", "editing session not found or expired")

	case errors.Is(err, services.ErrTemplateNotFound):
		return notFound(c, "template_not_found", "workflow template not found")

	case workflow.IsStepNotFound(err):
		return notFound(c, "step_not_found", "step not found")

	case workflow.IsTriggerNotFound(err):
		return notFound(c, "trigger_not_found", "trigger not found")

	default:
		return internalError(c, err)
	}
}
