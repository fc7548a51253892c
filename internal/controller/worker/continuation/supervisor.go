// Package continuation runs detached follow-on publishes: wait for a job to
// succeed, then publish a secondary event through the outbox publisher.
package continuation

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/usecase"
	"github.com/playtesthq/jobbox/pkg/logger"
)

type Supervisor struct {
	jobs      usecase.JobsUseCase
	publisher usecase.PublisherUseCase
	logger    logger.Interface

	waitTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}

	started  atomic.Bool
	stopping atomic.Bool
}

func New(
	jobs usecase.JobsUseCase,
	publisher usecase.PublisherUseCase,
	l logger.Interface,
	waitTimeout time.Duration,
) *Supervisor {
	return &Supervisor{
		jobs:        jobs,
		publisher:   publisher,
		logger:      l,
		waitTimeout: waitTimeout,
		inFlight:    make(map[uuid.UUID]struct{}),
	}
}

func (s *Supervisor) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("ContinuationSupervisor - Start - already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	return nil
}

// Dispatch registers a continuation for the given job and runs it in the
// background. The task is held in the supervisor's registry until it
// finishes, so a dispatched continuation is never dropped mid-flight. The
// caller gets an error only when the supervisor is not accepting work.
func (s *Supervisor) Dispatch(job entity.JobStatus, followUp entity.FollowUp, headers map[string]string) error {
	if !s.started.Load() || s.stopping.Load() {
		return fmt.Errorf("ContinuationSupervisor - Dispatch - supervisor is not running")
	}

	taskID := uuid.New()

	s.mu.Lock()
	s.inFlight[taskID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, taskID)
			s.mu.Unlock()
		}()

		s.run(job, followUp, headers)
	}()

	return nil
}

// run swallows every error: the triggering response has already been sent,
// so nothing downstream can act on one. A miss only skips the follow-on.
func (s *Supervisor) run(job entity.JobStatus, followUp entity.FollowUp, headers map[string]string) {
	_, err := s.jobs.Wait(s.ctx, job.ID, s.waitTimeout)
	if err != nil {
		s.logger.Warn("skipping follow-on publish for job %s: %v", job.ID, err)

		return
	}

	// Re-fetch through the shared pool for the final row state; the
	// originating request's resources may be long gone.
	final, err := s.jobs.Get(s.ctx, job.ID)
	if err != nil {
		s.logger.Error(err, "ContinuationSupervisor - run - s.jobs.Get")

		return
	}

	enriched := make(map[string]string, len(headers)+1)
	maps.Copy(enriched, headers)
	enriched[entity.HeaderOriginJob] = final.ID.String()

	status, err := s.publisher.Publish(s.ctx, followUp.RoutingKey, json.RawMessage(followUp.Payload), enriched, "")
	if err != nil {
		s.logger.Error(err, "ContinuationSupervisor - run - s.publisher.Publish")

		return
	}

	if status.Status == entity.Failed {
		s.logger.Warn("follow-on publish for job %s was not delivered", final.ID)
	}
}

// InFlight reports the number of continuations currently registered.
func (s *Supervisor) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.inFlight)
}

// Shutdown stops accepting new continuations and waits for running ones.
// When ctx expires first, the remaining waits are cancelled and drained.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}

	s.stopping.Store(true)

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.cancel()
		<-done
	}

	s.cancel()

	return nil
}
