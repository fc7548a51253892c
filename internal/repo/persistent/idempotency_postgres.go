package persistent

import (
	"context"
	"fmt"

	"github.com/playtesthq/jobbox/pkg/postgres"
)

const (
	// Table
	processedMessagesTable = "processed_messages"

	// Columns
	claimKeyColumn = "idempotency_key"
)

type IdempotencyRepo struct {
	*postgres.Postgres
}

func NewIdempotencyRepo(pg *postgres.Postgres) *IdempotencyRepo {
	return &IdempotencyRepo{pg}
}

// Claim inserts the key if absent and derives the result from the number of
// affected rows. There is no separate existence check, so two concurrent
// claims of the same key cannot both win.
func (r *IdempotencyRepo) Claim(ctx context.Context, key string) (bool, error) {
	sql, args, err := r.Builder.
		Insert(processedMessagesTable).
		Columns(claimKeyColumn).
		Values(key).
		Suffix("ON CONFLICT (" + claimKeyColumn + ") DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("IdempotencyRepo - Claim - r.Builder.ToSql: %w", err)
	}

	tag, err := r.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("IdempotencyRepo - Claim - r.Pool.Exec: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
