package jobs

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/pkg/types/errs"
)

const (
	_defaultWaitTimeout  = 60 * time.Second
	_defaultBaseInterval = 250 * time.Millisecond
	_defaultMaxInterval  = 2 * time.Second

	_backoffFactor  = 1.5
	_jitterFraction = 0.2
)

// ErrWaitTimeout means the job did not reach a terminal state within the
// caller's window. The job itself may still complete later.
var ErrWaitTimeout = errors.New("timed out waiting for job")

// JobFailedError carries the terminal failure a worker recorded for the job.
type JobFailedError struct {
	ID        uuid.UUID
	Status    entity.Status
	ErrorCode string
	ErrorMsg  string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s ended with status=%s, code=%s, msg=%s", e.ID, e.Status, e.ErrorCode, e.ErrorMsg)
}

// FetchFunc retrieves the current job state. errs.ErrRecordNotFound is
// treated as "not yet visible", not as a failure.
type FetchFunc func(ctx context.Context, id uuid.UUID) (*entity.Job, error)

type waitConfig struct {
	timeout      time.Duration
	baseInterval time.Duration
	maxInterval  time.Duration
}

type WaitOption func(*waitConfig)

func WithTimeout(timeout time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = timeout
	}
}

func WithBaseInterval(interval time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.baseInterval = interval
	}
}

func WithMaxInterval(interval time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.maxInterval = interval
	}
}

// WaitForCompletion polls fetch with jittered exponential backoff until the
// job is terminal, the timeout elapses or ctx is done.
//
// Outcomes: a succeeded job is returned as-is; a failed job becomes a
// *JobFailedError; exceeding the window becomes ErrWaitTimeout. Fetch errors
// other than errs.ErrRecordNotFound abort the wait.
func WaitForCompletion(ctx context.Context, id uuid.UUID, fetch FetchFunc, opts ...WaitOption) (*entity.Job, error) {
	cfg := waitConfig{
		timeout:      _defaultWaitTimeout,
		baseInterval: _defaultBaseInterval,
		maxInterval:  _defaultMaxInterval,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	interval := cfg.baseInterval

	for {
		job, err := fetch(ctx, id)
		if err != nil && !errors.Is(err, errs.ErrRecordNotFound) {
			return nil, fmt.Errorf("jobs - WaitForCompletion - fetch: %w", err)
		}

		if job != nil && job.Status.Terminal() {
			if job.Status == entity.Succeeded {
				return job, nil
			}

			failure := &JobFailedError{ID: job.ID, Status: job.Status}
			if job.ErrorCode != nil {
				failure.ErrorCode = *job.ErrorCode
			}
			if job.ErrorMsg != nil {
				failure.ErrorMsg = *job.ErrorMsg
			}

			return nil, failure
		}

		if time.Since(start) >= cfg.timeout {
			return nil, fmt.Errorf("jobs - WaitForCompletion - job %s: %w", id, ErrWaitTimeout)
		}

		// Jitter keeps many concurrent pollers from hitting the store in
		// lockstep.
		sleep := time.Duration(float64(interval) * (1.0 + rand.Float64()*_jitterFraction))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}

		interval = min(time.Duration(float64(interval)*_backoffFactor), cfg.maxInterval)
	}
}
