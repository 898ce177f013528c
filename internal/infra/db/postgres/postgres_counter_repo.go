package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/ports/repository"
)

var _ repository.CounterRepository = (*counterRepo)(nil)

type counterRepo struct{ pool *pgxpool.Pool }

func NewCounterRepo(pool *pgxpool.Pool) *counterRepo {
	return &counterRepo{pool: pool}
}

// Next is a single upsert so concurrent callers serialize on the row lock and
// never observe the same value.
func (r *counterRepo) Next(ctx context.Context, tx repository.Tx, series string) (int64, error) {
	if series == "" {
		return 0, domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO counters (name, seq) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET seq = counters.seq + 1
RETURNING seq;`
	row, err := pickRow(ctx, r.pool, tx, q, series)
	if err != nil {
		return 0, err
	}
	var seq int64
	if err := row.Scan(&seq); err != nil {
		return 0, mapErr(err)
	}
	return seq, nil
}
