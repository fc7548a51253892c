package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/repo"
	"github.com/playtesthq/jobbox/pkg/logger"
)

type UseCase struct {
	jobRepo   repo.JobRepo
	claimRepo repo.IdempotencyRepo

	logger logger.Interface
}

func New(jobRepo repo.JobRepo, claimRepo repo.IdempotencyRepo, l logger.Interface) *UseCase {
	return &UseCase{
		jobRepo:   jobRepo,
		claimRepo: claimRepo,
		logger:    l,
	}
}

func (uc *UseCase) Get(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	job, err := uc.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("JobsUseCase - Get - uc.jobRepo.GetByID: %w", err)
	}

	return job, nil
}

func (uc *UseCase) Apply(ctx context.Context, id uuid.UUID, transition entity.Transition) error {
	err := uc.jobRepo.ApplyTransition(ctx, id, transition)
	if err != nil {
		return fmt.Errorf("JobsUseCase - Apply - uc.jobRepo.ApplyTransition: %w", err)
	}

	return nil
}

func (uc *UseCase) Claim(ctx context.Context, key string) (bool, error) {
	claimed, err := uc.claimRepo.Claim(ctx, key)
	if err != nil {
		return false, fmt.Errorf("JobsUseCase - Claim - uc.claimRepo.Claim: %w", err)
	}

	return claimed, nil
}

// Wait polls the job store through the shared pool until the job reaches a
// terminal state or the timeout elapses.
func (uc *UseCase) Wait(ctx context.Context, id uuid.UUID, timeout time.Duration) (*entity.Job, error) {
	return WaitForCompletion(ctx, id, uc.jobRepo.GetByID, WithTimeout(timeout))
}
