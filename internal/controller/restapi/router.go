package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/playtesthq/jobbox/config"
	v1 "github.com/playtesthq/jobbox/internal/controller/restapi/v1"
	"github.com/playtesthq/jobbox/internal/usecase"
	"github.com/playtesthq/jobbox/pkg/logger"
)

// @title Async job hand-off service
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(
	app *fiber.App,
	cfg *config.Config,
	jobs usecase.JobsUseCase,
	publisher usecase.PublisherUseCase,
	continuations v1.ContinuationDispatcher,
	l logger.Interface,
) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewJobRoutes(apiV1Group, jobs, publisher, continuations, l)
	}
}
