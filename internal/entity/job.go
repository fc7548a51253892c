package entity

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	Queued     Status = "queued"
	Processing Status = "processing"
	Succeeded  Status = "succeeded"
	Failed     Status = "failed"
)

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed
}

// Job is the durable record of one asynchronous unit of work. It is created
// by the publisher together with the broker message and mutated only by the
// out-of-process worker that consumes that message.
type Job struct {
	ID     uuid.UUID `json:"id"`
	Status Status    `json:"status"`
	Action string    `json:"action"`

	ErrorCode *string `json:"error_code,omitempty"`
	ErrorMsg  *string `json:"error_msg,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// JobStatus is the immediate result of a publish: the job id plus either
// queued, failed (broker unreachable) or succeeded (test mode).
type JobStatus struct {
	ID        uuid.UUID `json:"id"`
	Status    Status    `json:"status"`
	ErrorCode *string   `json:"error_code,omitempty"`
	ErrorMsg  *string   `json:"error_msg,omitempty"`
}
