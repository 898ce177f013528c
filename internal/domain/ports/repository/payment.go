package repository

import (
	"context"
	"time"

	"gym-membership-billing/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

// PaymentMatch selects the row a conditional status update may touch. Exactly one
// of ID or OrderID is set; MemberID narrows the match to the owner when non-empty.
// From must be non-empty: the update only applies while the current status is one of them.
type PaymentMatch struct {
	ID       string
	OrderID  string
	MemberID string
	From     []model.PaymentStatus
}

type PaymentFilter struct {
	MemberID string
	Status   model.PaymentStatus
	Type     model.PaymentType
	Limit    int
	Offset   int
}

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)
	List(ctx context.Context, tx Tx, f PaymentFilter) ([]*model.Payment, error)
	// TransitionStatus is a single conditional write. It returns the updated row and
	// true, or nil and false when no row matched.
	TransitionStatus(ctx context.Context, tx Tx, m PaymentMatch, c model.StatusChange) (*model.Payment, bool, error)
	MarkEffectsApplied(ctx context.Context, tx Tx, id string, at time.Time) error
	ListPaidWithoutEffects(ctx context.Context, tx Tx, paidBefore time.Time, limit int) ([]*model.Payment, error)
}

// -----------------------------
// Counters
// -----------------------------

type CounterRepository interface {
	// Next increments the named series (creating it at 0 if absent) and returns
	// the new value in one round-trip.
	Next(ctx context.Context, tx Tx, series string) (int64, error)
}
