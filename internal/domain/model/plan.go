package model

import (
	"time"

	"gym-membership-billing/internal/domain"
)

// MembershipPlan represents a purchasable tier. Add-on plans (personal training)
// price a purchase without carrying a membership duration.
type MembershipPlan struct {
	ID             string
	Name           string
	Price          int64
	DurationMonths int
	IsAddOn        bool
	IsActive       bool
	CreatedAt      time.Time
}

func (p *MembershipPlan) IsZero() bool { return p == nil || p.ID == "" }

// Purchasable reports whether a member may order this plan explicitly.
func (p *MembershipPlan) Purchasable() bool { return !p.IsZero() && p.IsActive && p.Price > 0 }

// NewMembershipPlan validates and constructs a plan.
func NewMembershipPlan(id, name string, price int64, durationMonths int, isAddOn bool) (*MembershipPlan, error) {
	if id == "" || name == "" || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !isAddOn && durationMonths <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &MembershipPlan{
		ID:             id,
		Name:           name,
		Price:          price,
		DurationMonths: durationMonths,
		IsAddOn:        isAddOn,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}, nil
}

type Product struct {
	ID       string
	Name     string
	Price    int64
	IsActive bool
}

// DefaultPersonalTrainingPrice applies when settings are missing or unset.
const DefaultPersonalTrainingPrice int64 = 500

type Settings struct {
	PersonalTrainingPrice int64
	UpdatedAt             time.Time
}

// PersonalTrainingPriceOrDefault tolerates a nil receiver so callers can pass
// whatever the settings store returned.
func (s *Settings) PersonalTrainingPriceOrDefault() int64 {
	if s == nil || s.PersonalTrainingPrice <= 0 {
		return DefaultPersonalTrainingPrice
	}
	return s.PersonalTrainingPrice
}
