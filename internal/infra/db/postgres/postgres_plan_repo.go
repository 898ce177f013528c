package postgres

import (
	"context"
	"fmt"

	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.MembershipPlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.MembershipPlan) error {
	const sql = `
INSERT INTO membership_plans (id, name, price, duration_months, is_add_on, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
  SET name            = EXCLUDED.name,
      price           = EXCLUDED.price,
      duration_months = EXCLUDED.duration_months,
      is_add_on       = EXCLUDED.is_add_on,
      is_active       = EXCLUDED.is_active;
`
	_, err := execSQL(ctx, r.pool, tx, sql,
		plan.ID, plan.Name, plan.Price, plan.DurationMonths, plan.IsAddOn, plan.IsActive, plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Save plan: %w", mapErr(err))
	}
	return nil
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipPlan, error) {
	const sql = `
SELECT id, name, price, duration_months, is_add_on, is_active, created_at
  FROM membership_plans
 WHERE id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, sql, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		return nil, fmt.Errorf("FindByID plan: %w", mapErr(err))
	}
	return p, nil
}

func (r *PostgresPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipPlan, error) {
	const sql = `
SELECT id, name, price, duration_months, is_add_on, is_active, created_at
  FROM membership_plans
 ORDER BY price ASC;
`
	rows, err := queryRows(ctx, r.pool, tx, sql)
	if err != nil {
		return nil, fmt.Errorf("ListAll plans: %w", mapErr(err))
	}
	defer rows.Close()
	var out []*model.MembershipPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAll plans: %w", mapErr(err))
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlan(row pgx.Row) (*model.MembershipPlan, error) {
	var p model.MembershipPlan
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, &p.IsAddOn, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
