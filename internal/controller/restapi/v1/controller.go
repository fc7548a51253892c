package v1

import (
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/internal/usecase"
	"github.com/playtesthq/jobbox/pkg/logger"
)

// ContinuationDispatcher schedules a detached follow-on publish for a job.
type ContinuationDispatcher interface {
	Dispatch(job entity.JobStatus, followUp entity.FollowUp, headers map[string]string) error
}

type V1 struct {
	jobs          usecase.JobsUseCase
	publisher     usecase.PublisherUseCase
	continuations ContinuationDispatcher
	logger        logger.Interface
}
