// Package main provides the Leanflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/leanflow/leanflow/pkg/eventbus"
	"github.com/leanflow/leanflow/pkg/persistence"
	"github.com/leanflow/leanflow/pkg/services"
	"github.com/leanflow/leanflow/pkg/web"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	processService := services.NewProcess(a.persistence, a.eventBus)
	diagramService := services.NewDiagram(a.persistence, a.eventBus, a.tracer)

	handlers := web.NewAPIHandlers(processService, diagramService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Leanflow API")
	})

	p := app.Group("/processes")
	p.Get("/", handlers.GetProcesses)
	p.Post("/", handlers.CreateProcess)
	p.Post("/import", handlers.ImportProcess)
	p.Get("/:id", handlers.GetProcess)
	p.Delete("/:id", handlers.DeleteProcess)
	p.Put("/:id/activities", handlers.UpdateActivities)

	// Diagram endpoints:
	p.Post("/:id/diagram", handlers.GenerateDiagram)
	p.Put("/:id/diagram", handlers.RegenerateDiagram)
	p.Get("/:id/diagram", handlers.GetDiagram)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
