package repository

import (
	"context"

	"gym-membership-billing/internal/domain/model"
)

// -----------------------------
// Users & members
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	ListActiveAdmins(ctx context.Context, tx Tx) ([]*model.User, error)
}

type MemberRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Member) error
	// FindByID locks the row (FOR UPDATE) when tx is a transaction.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Member, error)
	UpdateMembership(ctx context.Context, tx Tx, m *model.Member) error
}
