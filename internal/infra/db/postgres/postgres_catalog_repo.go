package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.SettingsRepository = (*settingsRepo)(nil)
)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo { return &productRepo{pool: pool} }

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	const q = `SELECT id, name, price, is_active FROM products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.IsActive); err != nil {
		return nil, fmt.Errorf("FindByID product: %w", mapErr(err))
	}
	return &p, nil
}

// Save is used by the seed command; the dashboard manages products elsewhere.
func (r *productRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, name, price, is_active) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, price=EXCLUDED.price, is_active=EXCLUDED.is_active;`
	if _, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Price, p.IsActive); err != nil {
		return fmt.Errorf("Save product: %w", mapErr(err))
	}
	return nil
}

type settingsRepo struct{ pool *pgxpool.Pool }

func NewSettingsRepo(pool *pgxpool.Pool) *settingsRepo { return &settingsRepo{pool: pool} }

func (r *settingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.Settings, error) {
	const q = `SELECT personal_training_price, updated_at FROM settings WHERE id=1;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	var s model.Settings
	if err := row.Scan(&s.PersonalTrainingPrice, &s.UpdatedAt); err != nil {
		if errors.Is(mapErr(err), domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("Get settings: %w", mapErr(err))
	}
	return &s, nil
}

func (r *settingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.Settings) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	const q = `
INSERT INTO settings (id, personal_training_price, updated_at) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET personal_training_price=EXCLUDED.personal_training_price, updated_at=EXCLUDED.updated_at;`
	if _, err := execSQL(ctx, r.pool, tx, q, s.PersonalTrainingPrice, s.UpdatedAt); err != nil {
		return fmt.Errorf("Save settings: %w", mapErr(err))
	}
	return nil
}
