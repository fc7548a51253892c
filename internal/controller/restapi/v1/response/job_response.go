package response

import (
	"time"

	"github.com/playtesthq/jobbox/internal/entity"
)

const _timeLayout = "2006-01-02T15:04:05Z07:00"

type JobStatus struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	ErrorCode *string `json:"error_code,omitempty"`
	ErrorMsg  *string `json:"error_msg,omitempty"`
}

type Job struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Action     string  `json:"action"`
	ErrorCode  *string `json:"error_code,omitempty"`
	ErrorMsg   *string `json:"error_msg,omitempty"`
	CreatedAt  string  `json:"created_at"`
	StartedAt  *string `json:"started_at,omitempty"`
	FinishedAt *string `json:"finished_at,omitempty"`
}

type Claim struct {
	Claimed bool `json:"claimed"`
}

type Error struct {
	Error string `json:"error"`
}

func NewJobStatus(status entity.JobStatus) JobStatus {
	return JobStatus{
		ID:        status.ID.String(),
		Status:    string(status.Status),
		ErrorCode: status.ErrorCode,
		ErrorMsg:  status.ErrorMsg,
	}
}

func NewJob(job *entity.Job) Job {
	return Job{
		ID:         job.ID.String(),
		Status:     string(job.Status),
		Action:     job.Action,
		ErrorCode:  job.ErrorCode,
		ErrorMsg:   job.ErrorMsg,
		CreatedAt:  job.CreatedAt.Format(_timeLayout),
		StartedAt:  formatTime(job.StartedAt),
		FinishedAt: formatTime(job.FinishedAt),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}

	s := t.Format(_timeLayout)

	return &s
}
