package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
)

type (
	// JobRepo is the durable job store. GetByID returns
	// errs.ErrRecordNotFound for an unknown id; ApplyTransition never
	// creates rows.
	JobRepo interface {
		Create(ctx context.Context, job *entity.Job) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
		ApplyTransition(ctx context.Context, id uuid.UUID, transition entity.Transition) error
	}

	// IdempotencyRepo is the dedup-key ledger. Claim is a single atomic
	// insert-if-absent; true means this caller owns the key.
	IdempotencyRepo interface {
		Claim(ctx context.Context, key string) (bool, error)
	}
)
