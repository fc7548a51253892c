// Package publisher implements the outbox hand-off: every publish creates a
// durable job row first, then sends a message correlated to it.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/infrastructure"
	"github.com/playtesthq/jobbox/internal/repo"
	"github.com/playtesthq/jobbox/pkg/logger"
)

const _publishFailedMsg = "Failed to send message."

type UseCase struct {
	jobRepo repo.JobRepo
	sender  infrastructure.MessagePublisher

	logger logger.Interface
}

func New(jobRepo repo.JobRepo, sender infrastructure.MessagePublisher, l logger.Interface) *UseCase {
	return &UseCase{
		jobRepo: jobRepo,
		sender:  sender,
		logger:  l,
	}
}

// Publish creates a queued job row and sends the serialized payload on
// routingKey with the job id as correlation id.
//
// Broker failures are logged and surfaced as a failed JobStatus with a nil
// error; the queued row is left in place on purpose so intent is never lost.
// Serialization and job-row failures are programmer/storage errors and
// propagate. No retries happen here.
func (uc *UseCase) Publish(
	ctx context.Context,
	routingKey string,
	payload any,
	headers map[string]string,
	idempotencyKey string,
) (entity.JobStatus, error) {
	if headers[entity.HeaderTestMode] == entity.TestModeEnabled {
		uc.logger.Debug("test mode enabled, skipping queue for routing key %s", routingKey)

		return entity.JobStatus{ID: uuid.New(), Status: entity.Succeeded}, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return entity.JobStatus{}, fmt.Errorf("PublisherUseCase - Publish - json.Marshal: %w", err)
	}

	job := &entity.Job{
		ID:        uuid.New(),
		Status:    entity.Queued,
		Action:    routingKey,
		CreatedAt: time.Now(),
	}

	// The job row exists before the message does, so a worker can never see
	// a correlation id without a backing row.
	err = uc.jobRepo.Create(ctx, job)
	if err != nil {
		return entity.JobStatus{}, fmt.Errorf("PublisherUseCase - Publish - uc.jobRepo.Create: %w", err)
	}

	envelope := &entity.Envelope{
		RoutingKey:    routingKey,
		CorrelationID: job.ID,
		Headers:       make(map[string]string, len(headers)+1),
		Body:          body,
	}
	maps.Copy(envelope.Headers, headers)

	if idempotencyKey != "" {
		envelope.Headers[entity.HeaderIdempotencyKey] = idempotencyKey
	}

	err = uc.sender.Publish(ctx, envelope)
	if err != nil {
		uc.logger.Error(err, "PublisherUseCase - Publish - uc.sender.Publish")

		msg := _publishFailedMsg

		return entity.JobStatus{ID: job.ID, Status: entity.Failed, ErrorMsg: &msg}, nil
	}

	return entity.JobStatus{ID: job.ID, Status: entity.Queued}, nil
}
