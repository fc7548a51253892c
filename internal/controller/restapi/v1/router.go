package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/playtesthq/jobbox/internal/usecase"
	"github.com/playtesthq/jobbox/pkg/logger"
)

func NewJobRoutes(
	apiV1Group fiber.Router,
	jobs usecase.JobsUseCase,
	publisher usecase.PublisherUseCase,
	continuations ContinuationDispatcher,
	l logger.Interface,
) {
	r := &V1{jobs: jobs, publisher: publisher, continuations: continuations, logger: l}

	{
		apiV1Group.Post("/messages", r.publishMessage)
		apiV1Group.Get("/jobs/:id", r.getJob)
		apiV1Group.Get("/jobs/:id/wait", r.waitJob)
		apiV1Group.Patch("/jobs/:id", r.updateJob)
		apiV1Group.Post("/idempotency/claim", r.claimIdempotency)
	}
}
