// Package main provides the Atelier workflow builder API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/atelier/pkg/eventbus"
	"github.com/dukex/atelier/pkg/persistence"
	"github.com/dukex/atelier/pkg/services"
	"github.com/dukex/atelier/pkg/sessions"
	"github.com/dukex/atelier/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	sessions    *sessions.Store
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventPublisher,
	store *sessions.Store,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		sessions:    store,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.eventBus, a.logger)
	editorService := services.NewEditor(a.sessions, workflowService, a.logger)

	handlers := web.NewAPIHandlers(workflowService, editorService, a.validate)

	app := fiber.New(fiber.Config{AppName: "Atelier API"})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Atelier API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
