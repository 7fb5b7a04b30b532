package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/leanflow/leanflow/pkg/bpmn"
	"github.com/leanflow/leanflow/pkg/persistence"
	"github.com/leanflow/leanflow/pkg/services"
	"github.com/moogar0880/problems"
)

// violationsProblem extends the RFC 7807 body with the per-row violations of
// a rejected activity table.
type violationsProblem struct {
	*problems.Problem

	Violations []string `json:"violations"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

func unprocessableActivities(c fiber.Ctx, invalid *bpmn.InvalidActivitiesError) error {
	violations := make([]string, len(invalid.Violations))
	for i, v := range invalid.Violations {
		violations[i] = v.String()
	}

	problem := violationsProblem{
		Problem: problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_activities").
			WithDetail("edited activity table was rejected"),
		Violations: violations,
	}

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var invalid *bpmn.InvalidActivitiesError

	switch {
	case errors.As(err, &invalid):
		return unprocessableActivities(c, invalid)

	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsProcessNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("process_not_found").
			WithDetail("process not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	default:
		// Log unexpected errors but don't expose details
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
