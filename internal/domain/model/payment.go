package model

import (
	"fmt"
	"strings"
	"time"

	"gym-membership-billing/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // order issued or invoice raised; awaiting payment
	PaymentStatusPaid      PaymentStatus = "paid"      // verified or recorded by an admin; terminal
	PaymentStatusOverdue   PaymentStatus = "overdue"   // admin relabel of an unpaid invoice past due
	PaymentStatusCancelled PaymentStatus = "cancelled" // abandoned checkout or admin cancel
)

// transitions lists, for every status, the statuses it may move to.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled},
	PaymentStatusOverdue:   {PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled},
	PaymentStatusCancelled: {PaymentStatusPaid},
	PaymentStatusPaid:      nil,
}

// ParsePaymentStatus is the only way a status enters the domain from outside.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", domain.ErrInvalidStatus
	}
	return st, nil
}

func (s PaymentStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// PriorStatesFor returns every status that may legally move into `to`.
// Repositories use it as the WHERE clause of conditional status updates.
func PriorStatesFor(to PaymentStatus) []PaymentStatus {
	var out []PaymentStatus
	for _, from := range []PaymentStatus{PaymentStatusPending, PaymentStatusOverdue, PaymentStatusCancelled, PaymentStatusPaid} {
		if from.CanTransitionTo(to) {
			out = append(out, from)
		}
	}
	return out
}

type PaymentType string

const (
	PaymentTypeMembership       PaymentType = "membership"
	PaymentTypePersonalTraining PaymentType = "personal_training"
	PaymentTypeProduct          PaymentType = "product"
	PaymentTypeOther            PaymentType = "other"
)

func ParsePaymentType(s string) (PaymentType, error) {
	switch t := PaymentType(strings.TrimSpace(s)); t {
	case PaymentTypeMembership, PaymentTypePersonalTraining, PaymentTypeProduct, PaymentTypeOther:
		return t, nil
	default:
		return "", domain.ErrInvalidPaymentType
	}
}

// Payment is a single charge against a member: a self-service order or an admin invoice.
type Payment struct {
	ID                  string // UUID
	MemberID            string // owning member; never changes
	MemberName          string // snapshot at creation
	Amount              int64  // whole currency units
	Currency            string
	Type                PaymentType
	Status              PaymentStatus
	Date                time.Time // creation time, replaced by the moment it became paid
	DueDate             *time.Time
	InvoiceNumber       string
	OrderID             *string // gateway-facing id; nil for admin manual payments
	MembershipPlanID    *string // set for a purchase/upgrade, nil for a same-plan renewal
	AddPersonalTraining bool
	ProductID           *string
	RazorpayPaymentID   *string
	RazorpaySignature   *string
	Notes               string
	EffectsAppliedAt    *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (p *Payment) IsZero() bool { return p == nil || p.ID == "" }

// MaxPaymentAmount caps a single charge in whole units. It keeps AmountMinor
// far from int64 overflow.
const MaxPaymentAmount int64 = 10_000_000

// ValidAmount reports whether a whole-unit amount is chargeable.
func ValidAmount(a int64) bool { return a > 0 && a <= MaxPaymentAmount }

// AmountMinor converts the whole-unit amount into the gateway's minor units.
func (p *Payment) AmountMinor() int64 { return p.Amount * 100 }

func (p *Payment) OwnedBy(memberID string) bool { return p != nil && p.MemberID == memberID }

// StatusChange is what a conditional status update writes.
type StatusChange struct {
	To                PaymentStatus
	At                time.Time // becomes Date when To is paid
	RazorpayPaymentID *string
	RazorpaySignature *string
}

// InvoiceSeries is the counter series used for payment invoices.
const InvoiceSeries = "paymentInvoice"

// FormatInvoiceNumber renders INV-<year>-<sequence zero-padded to 5 digits>.
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%05d", year, seq)
}
