// Package web provides HTTP handlers and REST API endpoints for the workflow builder.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/registry"
	"github.com/dukex/atelier/pkg/services"
	"github.com/dukex/atelier/pkg/templates"
	"github.com/dukex/atelier/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	editorService   *services.Editor
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	editorService *services.Editor,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		editorService:   editorService,
		validator:       validator,
	}
}

// Register mounts every builder route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	router.Get("/step-types", h.GetStepTypes)
	router.Get("/step-types/:type", h.GetStepType)
	router.Get("/trigger-types", h.GetTriggerTypes)
	router.Get("/templates", h.GetTemplates)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/validate", h.ValidateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Patch("/:id/status", h.ChangeWorkflowStatus)

	s := router.Group("/sessions")
	s.Post("/", h.OpenSession)
	s.Get("/:sid", h.GetSession)
	s.Patch("/:sid", h.UpdateSession)
	s.Delete("/:sid", h.CloseSession)
	s.Post("/:sid/steps", h.AddStep)
	s.Patch("/:sid/steps/:stepId", h.UpdateStep)
	s.Delete("/:sid/steps/:stepId", h.RemoveStep)
	s.Post("/:sid/connections", h.AddConnection)
	s.Delete("/:sid/connections/:source/:target", h.RemoveConnection)
	s.Post("/:sid/triggers", h.AddTrigger)
	s.Put("/:sid/triggers", h.ReplaceTriggers)
	s.Patch("/:sid/triggers/:triggerId", h.UpdateTrigger)
	s.Get("/:sid/validation", h.ValidateSession)
	s.Post("/:sid/save", h.SaveSession)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Atelier API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Atelier API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetStepTypes(c fiber.Ctx) error {
	return c.JSON(registry.StepComponents())
}

func (h *APIHandlers) GetStepType(c fiber.Ctx) error {
	component, ok := registry.StepComponent(models.StepType(c.Params("type")))
	if !ok {
		return notFound(c, "step_type_not_found", "unknown step type")
	}

	return c.JSON(component)
}

func (h *APIHandlers) GetTriggerTypes(c fiber.Ctx) error {
	return c.JSON(registry.TriggerComponents())
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	list, err := templates.List()
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(list)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := h.parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   result.Workflows,
		"totalCount":  result.TotalCount,
		"hasNextPage": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sortBy":    req.SortBy,
			"sortOrder": req.SortOrder,
		},
	})
}

// parseListWorkflowsRequest parses query parameters for listing workflows.
func (h *APIHandlers) parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.Category = c.Query("category")
	req.CreatedBy = c.Query("created_by")

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.WorkflowStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	record, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ChangeWorkflowStatus(c fiber.Ctx) error {
	var req ChangeStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.workflowService.ChangeStatus(c.Context(), c.Params("id"), models.WorkflowStatus(req.Status))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(record)
}

// ValidateWorkflow checks a workflow document without storing it.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var record models.WorkflowRecord
	if err := c.Bind().JSON(&record); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	definition, err := workflow.FromPersisted(&record)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(newValidationResponse(definition.Validate()))
}
