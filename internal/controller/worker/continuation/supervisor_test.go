package continuation_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/controller/worker/continuation"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/usecase/jobs"
	"github.com/playtesthq/jobbox/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobs struct {
	job       *entity.Job
	waitErr   error
	waitDelay time.Duration
}

func (f *fakeJobs) Get(_ context.Context, _ uuid.UUID) (*entity.Job, error) {
	return f.job, nil
}

func (f *fakeJobs) Apply(_ context.Context, _ uuid.UUID, _ entity.Transition) error {
	return nil
}

func (f *fakeJobs) Claim(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (f *fakeJobs) Wait(ctx context.Context, _ uuid.UUID, _ time.Duration) (*entity.Job, error) {
	select {
	case <-time.After(f.waitDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if f.waitErr != nil {
		return nil, f.waitErr
	}

	return f.job, nil
}

type publishCall struct {
	routingKey string
	headers    map[string]string
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
}

func (f *fakePublisher) Publish(
	_ context.Context,
	routingKey string,
	_ any,
	headers map[string]string,
	_ string,
) (entity.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, publishCall{routingKey: routingKey, headers: headers})

	return entity.JobStatus{ID: uuid.New(), Status: entity.Queued}, nil
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

func succeededJob() *entity.Job {
	now := time.Now()

	return &entity.Job{
		ID:         uuid.New(),
		Status:     entity.Succeeded,
		Action:     "api.playtest.create",
		CreatedAt:  now,
		FinishedAt: &now,
	}
}

func followUp() entity.FollowUp {
	return entity.FollowUp{
		RoutingKey: "api.newsfeed.publish",
		Payload:    json.RawMessage(`{"event_type":"linked_map"}`),
	}
}

func TestDispatchPublishesFollowUpAfterSuccess(t *testing.T) {
	job := succeededJob()
	fj := &fakeJobs{job: job}
	fp := &fakePublisher{}

	s := continuation.New(fj, fp, logger.New("error"), time.Second)
	require.NoError(t, s.Start(context.Background()))

	err := s.Dispatch(
		entity.JobStatus{ID: job.ID, Status: entity.Queued},
		followUp(),
		map[string]string{"X-Request-Id": "req-9"},
	)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return fp.callCount() == 1 && s.InFlight() == 0
	}, time.Second, 10*time.Millisecond)

	fp.mu.Lock()
	call := fp.calls[0]
	fp.mu.Unlock()

	assert.Equal(t, "api.newsfeed.publish", call.routingKey)
	assert.Equal(t, job.ID.String(), call.headers[entity.HeaderOriginJob])
	assert.Equal(t, "req-9", call.headers["X-Request-Id"])

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestDispatchSkipsFollowUpOnFailure(t *testing.T) {
	job := succeededJob()
	fj := &fakeJobs{
		job:     job,
		waitErr: &jobs.JobFailedError{ID: job.ID, Status: entity.Failed},
	}
	fp := &fakePublisher{}

	s := continuation.New(fj, fp, logger.New("error"), time.Second)
	require.NoError(t, s.Start(context.Background()))

	err := s.Dispatch(entity.JobStatus{ID: job.ID, Status: entity.Queued}, followUp(), nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return s.InFlight() == 0
	}, time.Second, 10*time.Millisecond)

	assert.Zero(t, fp.callCount())

	require.NoError(t, s.Shutdown(context.Background()))
}

func TestShutdownDrainsInFlightContinuations(t *testing.T) {
	job := succeededJob()
	fj := &fakeJobs{job: job, waitDelay: 50 * time.Millisecond}
	fp := &fakePublisher{}

	s := continuation.New(fj, fp, logger.New("error"), time.Second)
	require.NoError(t, s.Start(context.Background()))

	err := s.Dispatch(entity.JobStatus{ID: job.ID, Status: entity.Queued}, followUp(), nil)
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(shutdownCtx))

	assert.Equal(t, 1, fp.callCount())
	assert.Zero(t, s.InFlight())
}

func TestDispatchRefusedWhenNotRunning(t *testing.T) {
	fj := &fakeJobs{job: succeededJob()}
	fp := &fakePublisher{}

	s := continuation.New(fj, fp, logger.New("error"), time.Second)

	err := s.Dispatch(entity.JobStatus{ID: uuid.New(), Status: entity.Queued}, followUp(), nil)
	require.Error(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))

	err = s.Dispatch(entity.JobStatus{ID: uuid.New(), Status: entity.Queued}, followUp(), nil)
	require.Error(t, err)
	assert.Zero(t, fp.callCount())
}
