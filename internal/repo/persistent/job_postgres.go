package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/pkg/postgres"
	"github.com/playtesthq/jobbox/pkg/types/errs"
)

const (
	// Table
	jobsTable = "jobs"

	// Columns
	jobIDColumn         = "id"
	jobStatusColumn     = "status"
	jobActionColumn     = "action"
	jobErrorCodeColumn  = "error_code"
	jobErrorMsgColumn   = "error_msg"
	jobCreatedAtColumn  = "created_at"
	jobStartedAtColumn  = "started_at"
	jobFinishedAtColumn = "finished_at"
)

type JobRepo struct {
	*postgres.Postgres
}

func NewJobRepo(pg *postgres.Postgres) *JobRepo {
	return &JobRepo{pg}
}

func (r *JobRepo) Create(ctx context.Context, job *entity.Job) error {
	sql, args, err := r.Builder.
		Insert(jobsTable).
		Columns(
			jobIDColumn,
			jobStatusColumn,
			jobActionColumn,
			jobCreatedAtColumn,
		).
		Values(
			job.ID,
			job.Status,
			job.Action,
			job.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobRepo - Create - r.Builder.ToSql: %w", err)
	}

	_, err = r.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobRepo - Create - r.Pool.Exec: %w", err)
	}

	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	sql, args, err := r.Builder.
		Select(
			jobIDColumn,
			jobStatusColumn,
			jobActionColumn,
			jobErrorCodeColumn,
			jobErrorMsgColumn,
			jobCreatedAtColumn,
			jobStartedAtColumn,
			jobFinishedAtColumn,
		).
		From(jobsTable).
		Where(squirrel.Eq{jobIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("JobRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	var job entity.Job
	err = r.Pool.QueryRow(ctx, sql, args...).Scan(
		&job.ID,
		&job.Status,
		&job.Action,
		&job.ErrorCode,
		&job.ErrorMsg,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("JobRepo - GetByID: %w", errs.ErrRecordNotFound)
		}

		return nil, fmt.Errorf("JobRepo - GetByID - r.Pool.QueryRow.Scan: %w", err)
	}

	return &job, nil
}

// ApplyTransition performs a single-row conditional update. Terminal rows are
// never modified: a repeated terminal transition is a no-op, while an unknown
// id fails with errs.ErrRecordNotFound.
func (r *JobRepo) ApplyTransition(ctx context.Context, id uuid.UUID, transition entity.Transition) error {
	now := time.Now()

	update := r.Builder.Update(jobsTable)

	switch t := transition.(type) {
	case entity.TransitionProcessing:
		update = update.
			Set(jobStatusColumn, entity.Processing).
			Set(jobStartedAtColumn, squirrel.Expr("COALESCE("+jobStartedAtColumn+", ?)", now))
	case entity.TransitionSucceeded:
		update = update.
			Set(jobStatusColumn, entity.Succeeded).
			Set(jobFinishedAtColumn, now).
			Set(jobErrorCodeColumn, nil).
			Set(jobErrorMsgColumn, nil)
	case entity.TransitionFailed:
		update = update.
			Set(jobStatusColumn, entity.Failed).
			Set(jobFinishedAtColumn, now).
			Set(jobErrorCodeColumn, t.Code).
			Set(jobErrorMsgColumn, t.Msg)
	default:
		return fmt.Errorf("JobRepo - ApplyTransition: %w", errs.ErrUnknownTransition)
	}

	sql, args, err := update.
		Where(squirrel.Eq{jobIDColumn: id}).
		Where(squirrel.NotEq{jobStatusColumn: []entity.Status{entity.Succeeded, entity.Failed}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobRepo - ApplyTransition - r.Builder.ToSql: %w", err)
	}

	tag, err := r.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobRepo - ApplyTransition - r.Pool.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either the row is already terminal (no-op) or it does not exist.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return fmt.Errorf("JobRepo - ApplyTransition: %w", errs.ErrRecordNotFound)
		}
	}

	return nil
}
