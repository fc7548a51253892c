package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
)

type (
	// JobsUseCase exposes the job store, the idempotency ledger and the
	// bounded completion poller.
	JobsUseCase interface {
		Get(ctx context.Context, id uuid.UUID) (*entity.Job, error)
		Apply(ctx context.Context, id uuid.UUID, transition entity.Transition) error
		Claim(ctx context.Context, key string) (bool, error)
		Wait(ctx context.Context, id uuid.UUID, timeout time.Duration) (*entity.Job, error)
	}

	// PublisherUseCase creates a job row and hands a correlated message to
	// the broker. A broker failure is reported through the returned
	// JobStatus, not the error.
	PublisherUseCase interface {
		Publish(
			ctx context.Context,
			routingKey string,
			payload any,
			headers map[string]string,
			idempotencyKey string,
		) (entity.JobStatus, error)
	}
)
