package jobs_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/usecase/jobs"
	"github.com/playtesthq/jobbox/pkg/logger"
	"github.com/playtesthq/jobbox/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.Job

	applied []entity.Transition
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*entity.Job)}
}

func (f *fakeJobRepo) Create(_ context.Context, job *entity.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.jobs[job.ID] = job

	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[id]
	if !ok {
		return nil, fmt.Errorf("fakeJobRepo - GetByID: %w", errs.ErrRecordNotFound)
	}

	return job, nil
}

func (f *fakeJobRepo) ApplyTransition(_ context.Context, id uuid.UUID, transition entity.Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.jobs[id]; !ok {
		return fmt.Errorf("fakeJobRepo - ApplyTransition: %w", errs.ErrRecordNotFound)
	}

	f.applied = append(f.applied, transition)

	return nil
}

type fakeClaimRepo struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[string]struct{})}
}

func (f *fakeClaimRepo) Claim(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.claims[key]; ok {
		return false, nil
	}

	f.claims[key] = struct{}{}

	return true, nil
}

func TestClaimSameKeyTwice(t *testing.T) {
	uc := jobs.New(newFakeJobRepo(), newFakeClaimRepo(), logger.New("error"))

	first, err := uc.Claim(context.Background(), "map:submit:42")
	require.NoError(t, err)
	second, err := uc.Claim(context.Background(), "map:submit:42")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestClaimDistinctKeys(t *testing.T) {
	uc := jobs.New(newFakeJobRepo(), newFakeClaimRepo(), logger.New("error"))

	first, err := uc.Claim(context.Background(), "map:submit:1")
	require.NoError(t, err)
	second, err := uc.Claim(context.Background(), "map:submit:2")
	require.NoError(t, err)

	assert.True(t, first)
	assert.True(t, second)
}

func TestGetUnknownJob(t *testing.T) {
	uc := jobs.New(newFakeJobRepo(), newFakeClaimRepo(), logger.New("error"))

	_, err := uc.Get(context.Background(), uuid.New())

	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestApplyForwardsTransition(t *testing.T) {
	repo := newFakeJobRepo()
	uc := jobs.New(repo, newFakeClaimRepo(), logger.New("error"))

	job := queuedJob(uuid.New())
	require.NoError(t, repo.Create(context.Background(), job))

	err := uc.Apply(context.Background(), job.ID, entity.TransitionFailed{Code: "E42", Msg: "nope"})
	require.NoError(t, err)

	require.Len(t, repo.applied, 1)
	failed, ok := repo.applied[0].(entity.TransitionFailed)
	require.True(t, ok)
	assert.Equal(t, "E42", failed.Code)
}

func TestApplyUnknownJob(t *testing.T) {
	uc := jobs.New(newFakeJobRepo(), newFakeClaimRepo(), logger.New("error"))

	err := uc.Apply(context.Background(), uuid.New(), entity.TransitionProcessing{})

	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestWaitUsesRepoFetch(t *testing.T) {
	repo := newFakeJobRepo()
	uc := jobs.New(repo, newFakeClaimRepo(), logger.New("error"))

	job := queuedJob(uuid.New())
	job.Status = entity.Succeeded
	require.NoError(t, repo.Create(context.Background(), job))

	got, err := uc.Wait(context.Background(), job.ID, time.Second)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}
