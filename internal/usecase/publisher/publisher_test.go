package publisher_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/usecase/publisher"
	"github.com/playtesthq/jobbox/pkg/logger"
	"github.com/playtesthq/jobbox/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobRepo struct {
	mu        sync.Mutex
	created   []*entity.Job
	createErr error
}

func (f *fakeJobRepo) Create(_ context.Context, job *entity.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	f.created = append(f.created, job)

	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, _ uuid.UUID) (*entity.Job, error) {
	return nil, fmt.Errorf("fakeJobRepo - GetByID: %w", errs.ErrRecordNotFound)
}

func (f *fakeJobRepo) ApplyTransition(_ context.Context, _ uuid.UUID, _ entity.Transition) error {
	return nil
}

type fakeSender struct {
	mu        sync.Mutex
	envelopes []*entity.Envelope
	err       error
}

func (f *fakeSender) Publish(_ context.Context, envelope *entity.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.envelopes = append(f.envelopes, envelope)

	return nil
}

func (f *fakeSender) Close() error {
	return nil
}

func TestPublishSuccess(t *testing.T) {
	repo := &fakeJobRepo{}
	sender := &fakeSender{}
	uc := publisher.New(repo, sender, logger.New("error"))

	status, err := uc.Publish(
		context.Background(),
		"api.map.create",
		map[string]string{"code": "AAAAA"},
		map[string]string{"X-Request-Id": "req-1"},
		"map:submit:42",
	)

	require.NoError(t, err)
	assert.Equal(t, entity.Queued, status.Status)

	require.Len(t, repo.created, 1)
	job := repo.created[0]
	assert.Equal(t, status.ID, job.ID)
	assert.Equal(t, entity.Queued, job.Status)
	assert.Equal(t, "api.map.create", job.Action)

	require.Len(t, sender.envelopes, 1)
	envelope := sender.envelopes[0]
	assert.Equal(t, "api.map.create", envelope.RoutingKey)
	assert.Equal(t, job.ID, envelope.CorrelationID)
	assert.Equal(t, "map:submit:42", envelope.Headers[entity.HeaderIdempotencyKey])
	assert.Equal(t, "req-1", envelope.Headers["X-Request-Id"])
	assert.JSONEq(t, `{"code":"AAAAA"}`, string(envelope.Body))
}

func TestPublishTestModeSkipsAllIO(t *testing.T) {
	repo := &fakeJobRepo{}
	sender := &fakeSender{}
	uc := publisher.New(repo, sender, logger.New("error"))

	status, err := uc.Publish(
		context.Background(),
		"api.map.create",
		map[string]string{"code": "AAAAA"},
		map[string]string{entity.HeaderTestMode: entity.TestModeEnabled},
		"",
	)

	require.NoError(t, err)
	assert.Equal(t, entity.Succeeded, status.Status)
	assert.NotEqual(t, uuid.Nil, status.ID)
	assert.Empty(t, repo.created)
	assert.Empty(t, sender.envelopes)
}

func TestPublishBrokerFailure(t *testing.T) {
	repo := &fakeJobRepo{}
	sender := &fakeSender{err: errors.New("connection refused")}
	uc := publisher.New(repo, sender, logger.New("error"))

	status, err := uc.Publish(context.Background(), "api.map.create", map[string]string{"code": "AAAAA"}, nil, "")

	// Broker failure is reported through the status, never thrown.
	require.NoError(t, err)
	assert.Equal(t, entity.Failed, status.Status)
	require.NotNil(t, status.ErrorMsg)
	assert.Equal(t, "Failed to send message.", *status.ErrorMsg)

	// The queued row stays in place: no rollback on publish failure.
	require.Len(t, repo.created, 1)
	assert.Equal(t, entity.Queued, repo.created[0].Status)
	assert.Equal(t, status.ID, repo.created[0].ID)
}

func TestPublishUnserializablePayload(t *testing.T) {
	repo := &fakeJobRepo{}
	sender := &fakeSender{}
	uc := publisher.New(repo, sender, logger.New("error"))

	_, err := uc.Publish(context.Background(), "api.map.create", make(chan int), nil, "")

	require.Error(t, err)
	assert.Empty(t, repo.created)
	assert.Empty(t, sender.envelopes)
}

func TestPublishJobRowFailurePropagates(t *testing.T) {
	repo := &fakeJobRepo{createErr: errors.New("pool exhausted")}
	sender := &fakeSender{}
	uc := publisher.New(repo, sender, logger.New("error"))

	_, err := uc.Publish(context.Background(), "api.map.create", map[string]string{"code": "AAAAA"}, nil, "")

	require.Error(t, err)
	assert.Empty(t, sender.envelopes)
}

func TestPublishWithoutIdempotencyKey(t *testing.T) {
	repo := &fakeJobRepo{}
	sender := &fakeSender{}
	uc := publisher.New(repo, sender, logger.New("error"))

	_, err := uc.Publish(context.Background(), "api.xp.grant", map[string]int{"amount": 50}, nil, "")

	require.NoError(t, err)
	require.Len(t, sender.envelopes, 1)
	_, ok := sender.envelopes[0].Headers[entity.HeaderIdempotencyKey]
	assert.False(t, ok)
}
