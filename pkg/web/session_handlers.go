package web

import (
	"github.com/dukex/atelier/pkg/models"
	"github.com/dukex/atelier/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) OpenSession(c fiber.Ctx) error {
	var req OpenSessionRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	snap, err := h.editorService.Open(c.Context(), services.OpenRequest{
		WorkflowID: req.WorkflowID,
		Template:   req.Template,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(snap)
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	snap, err := h.editorService.Snapshot(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(snap)
}

func (h *APIHandlers) UpdateSession(c fiber.Ctx) error {
	var req UpdateMetadataRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	snap, err := h.editorService.UpdateMetadata(c.Params("sid"), services.MetadataUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(snap)
}

func (h *APIHandlers) CloseSession(c fiber.Ctx) error {
	h.editorService.Close(c.Params("sid"))

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddStep(c fiber.Ctx) error {
	var req AddStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.editorService.AddStep(c.Params("sid"), models.StepType(req.Type))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(step)
}

func (h *APIHandlers) UpdateStep(c fiber.Ctx) error {
	var req UpdateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	step, err := h.editorService.UpdateStep(c.Params("sid"), c.Params("stepId"), req.toStepUpdate())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(step)
}

func (h *APIHandlers) RemoveStep(c fiber.Ctx) error {
	if err := h.editorService.RemoveStep(c.Params("sid"), c.Params("stepId")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) AddConnection(c fiber.Ctx) error {
	var req ConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	sid := c.Params("sid")

	added, err := h.editorService.AddConnection(sid, req.Source, req.Target)
	if err != nil {
		return handleServiceError(c, err)
	}

	return h.connectionResponse(c, sid, added)
}

func (h *APIHandlers) RemoveConnection(c fiber.Ctx) error {
	sid := c.Params("sid")

	removed, err := h.editorService.RemoveConnection(sid, c.Params("source"), c.Params("target"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return h.connectionResponse(c, sid, removed)
}

func (h *APIHandlers) connectionResponse(c fiber.Ctx, sid string, changed bool) error {
	snap, err := h.editorService.Snapshot(sid)
	if err != nil {
		return handleServiceError(c, err)
	}

	status := fiber.StatusOK
	if changed && c.Method() == fiber.MethodPost {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(ConnectionResponse{
		Changed:     changed,
		Connections: snap.Connections,
	})
}

func (h *APIHandlers) AddTrigger(c fiber.Ctx) error {
	var req AddTriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	trigger, err := h.editorService.AddTrigger(c.Params("sid"), models.TriggerType(req.Type))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(trigger)
}

func (h *APIHandlers) UpdateTrigger(c fiber.Ctx) error {
	var req UpdateTriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	trigger, err := h.editorService.UpdateTrigger(c.Params("sid"), c.Params("triggerId"), req.toTriggerUpdate())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(trigger)
}

func (h *APIHandlers) ReplaceTriggers(c fiber.Ctx) error {
	var req []TriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Var(req, "dive"); err != nil {
		return badRequest(c, err.Error())
	}

	triggers, err := h.editorService.ReplaceTriggers(c.Params("sid"), toTriggers(req))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(triggers)
}

func (h *APIHandlers) ValidateSession(c fiber.Ctx) error {
	violations, err := h.editorService.Validate(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(newValidationResponse(violations))
}

// SaveSession stores the session's workflow: 201 on first save, 200 after,
// 422 with the violation list when the workflow is not valid.
func (h *APIHandlers) SaveSession(c fiber.Ctx) error {
	sid := c.Params("sid")

	record, created, err := h.editorService.Save(c.Context(), sid)
	if err != nil {
		return handleServiceError(c, err)
	}

	snap, err := h.editorService.Snapshot(sid)
	if err != nil {
		return handleServiceError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}

	return c.Status(status).JSON(SaveResponse{
		Created:  created,
		Workflow: record,
		Session:  snap,
	})
}
