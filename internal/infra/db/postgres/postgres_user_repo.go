package postgres

import (
	"context"
	"fmt"
	"time"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	_ repository.UserRepository   = (*userRepo)(nil)
	_ repository.MemberRepository = (*memberRepo)(nil)
)

type userRepo struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *userRepo { return &userRepo{pool: pool} }

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, name, email, role, is_active, telegram_chat_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, email=EXCLUDED.email, role=EXCLUDED.role,
  is_active=EXCLUDED.is_active, telegram_chat_id=EXCLUDED.telegram_chat_id;`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Name, u.Email, string(u.Role), u.IsActive, u.TelegramChatID, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("Save user: %w", mapErr(err))
	}
	return nil
}

const userColumns = `id, name, email, role, is_active, telegram_chat_id, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.TelegramChatID, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) ListActiveAdmins(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+userColumns+` FROM users WHERE role='admin' AND is_active ORDER BY created_at;`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type memberRepo struct{ pool *pgxpool.Pool }

func NewMemberRepo(pool *pgxpool.Pool) *memberRepo { return &memberRepo{pool: pool} }

func (r *memberRepo) Save(ctx context.Context, tx repository.Tx, m *model.Member) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now()
	}
	const q = `
INSERT INTO members (id, user_id, name, membership_plan_id, membership_plan_name, membership_expiry, has_personal_training, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, membership_plan_id=EXCLUDED.membership_plan_id,
  membership_plan_name=EXCLUDED.membership_plan_name, membership_expiry=EXCLUDED.membership_expiry,
  has_personal_training=EXCLUDED.has_personal_training, updated_at=EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q, m.ID, m.UserID, m.Name, m.MembershipPlanID, m.MembershipPlanName, m.MembershipExpiry, m.HasPersonalTraining, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Save member: %w", mapErr(err))
	}
	return nil
}

func (r *memberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Member, error) {
	q := `SELECT id, user_id, name, membership_plan_id, membership_plan_name, membership_expiry, has_personal_training, updated_at
FROM members WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	var m model.Member
	if err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.MembershipPlanID, &m.MembershipPlanName, &m.MembershipExpiry, &m.HasPersonalTraining, &m.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

// UpdateMembership writes only the fields a payment may change.
func (r *memberRepo) UpdateMembership(ctx context.Context, tx repository.Tx, m *model.Member) error {
	m.UpdatedAt = time.Now()
	const q = `
UPDATE members SET membership_plan_id=$2, membership_plan_name=$3, membership_expiry=$4,
  has_personal_training=$5, updated_at=$6
WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, m.ID, m.MembershipPlanID, m.MembershipPlanName, m.MembershipExpiry, m.HasPersonalTraining, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("UpdateMembership: %w", mapErr(err))
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
