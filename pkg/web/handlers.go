package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/leanflow/leanflow/pkg/models"
	"github.com/leanflow/leanflow/pkg/persistence"
	"github.com/leanflow/leanflow/pkg/services"
)

type APIHandlers struct {
	processService *services.Process
	diagramService *services.Diagram
	validator      *validator.Validate
}

func NewAPIHandlers(
	processService *services.Process,
	diagramService *services.Diagram,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		processService: processService,
		diagramService: diagramService,
		validator:      validator,
	}
}

func (h *APIHandlers) GetProcesses(c fiber.Ctx) error {
	processes, err := h.processService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"processes":   processes,
		"total_count": len(processes),
	})
}

func (h *APIHandlers) GetProcess(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	process, err := h.processService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsProcessNotFound(err) {
			return notFound(c, "Process not found")
		}

		return internalError(c, err)
	}

	return c.JSON(process)
}

func (h *APIHandlers) CreateProcess(c fiber.Ctx) error {
	var req CreateProcessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	process := &models.Process{
		Name:        req.Name,
		Description: req.Description,
		PoolName:    req.PoolName,
		Owner:       req.Owner,
		Activities:  toModelActivities(req.Activities),
	}

	created, err := h.processService.Create(c.Context(), process)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) DeleteProcess(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	err := h.processService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsProcessNotFound(err) {
			return notFound(c, "Process not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) UpdateActivities(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	var req UpdateActivitiesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.processService.UpdateActivities(c.Context(), id, toModelActivities(req.Activities))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ImportProcess(c fiber.Ctx) error {
	var document map[string]any
	if err := c.Bind().JSON(&document); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.processService.Import(c.Context(), document)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GenerateDiagram(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	var req services.GenerateDiagramRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	process, err := h.diagramService.Generate(c.Context(), id, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(process)
}

// RegenerateDiagram accepts an edited activity table and re-runs the pipeline
// with the configuration stored on the last generation.
func (h *APIHandlers) RegenerateDiagram(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	var req RegenerateDiagramRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	process, err := h.diagramService.Regenerate(c.Context(), id, toModelActivities(req.Activities))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(process)
}

func (h *APIHandlers) GetDiagram(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Process ID is required")
	}

	record, err := h.diagramService.FetchDiagram(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if c.Query("download") == "true" {
		c.Set(fiber.HeaderContentType, "application/xml")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+id+`.bpmn"`)

		return c.SendString(record.XML)
	}

	return c.JSON(record)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.processService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Leanflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Leanflow API is healthy"
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
