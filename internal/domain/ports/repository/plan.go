package repository

import (
	"context"

	"gym-membership-billing/internal/domain/model"
)

// MembershipPlanRepository is the port for plan persistence.
type MembershipPlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.MembershipPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MembershipPlan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.MembershipPlan, error)
}

type ProductRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
}

// SettingsRepository returns the singleton settings row, or nil when none exists.
type SettingsRepository interface {
	Get(ctx context.Context, tx Tx) (*model.Settings, error)
	Save(ctx context.Context, tx Tx, s *model.Settings) error
}
