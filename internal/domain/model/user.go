package model

import (
	"time"

	"gym-membership-billing/internal/domain"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleMember  Role = "member"
)

// User is an account able to sign in to the dashboard.
type User struct {
	ID             string
	Name           string
	Email          string
	Role           Role
	IsActive       bool
	TelegramChatID *int64 // admins may opt in to Telegram pushes
	CreatedAt      time.Time
}

func NewUser(id, name, email string, role Role) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch role {
	case RoleAdmin, RoleTrainer, RoleMember:
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &User{ID: id, Name: name, Email: email, Role: role, IsActive: true, CreatedAt: time.Now()}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// Member is the gym-side profile of a member user. Payments mutate only the
// membership fields below.
type Member struct {
	ID                  string
	UserID              string
	Name                string
	MembershipPlanID    *string
	MembershipPlanName  string
	MembershipExpiry    *time.Time
	HasPersonalTraining bool
	UpdatedAt           time.Time
}

func (m *Member) IsZero() bool { return m == nil || m.ID == "" }

// ExtendMembership adds the plan's duration on top of whichever is later: now or
// the current, still valid, expiry. Early renewals keep their unused days.
func (m *Member) ExtendMembership(plan *MembershipPlan, now time.Time) time.Time {
	base := now
	if m.MembershipExpiry != nil && m.MembershipExpiry.After(now) {
		base = *m.MembershipExpiry
	}
	next := base.AddDate(0, plan.DurationMonths, 0)
	m.MembershipExpiry = &next
	return next
}

// SwitchPlan points the member at a new plan and refreshes the denormalized name.
func (m *Member) SwitchPlan(plan *MembershipPlan) {
	id := plan.ID
	m.MembershipPlanID = &id
	m.MembershipPlanName = plan.Name
}
