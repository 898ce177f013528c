package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/adapter"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/infra/logging"
	"gym-membership-billing/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// CreateOrder prices the request from server-side state and issues a pending order.
	CreateOrder(ctx context.Context, memberID string, req OrderRequest) (*OrderResult, error)
	// Verify moves the caller's pending order to paid and applies what it bought.
	Verify(ctx context.Context, orderID, memberID string, r Receipt) (*model.Payment, error)
	// CancelOrder abandons the caller's pending order.
	CancelOrder(ctx context.Context, memberID, orderID string) (*model.Payment, error)

	// Admin operations.
	CreateManual(ctx context.Context, in ManualPaymentInput) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id, status string) (*model.Payment, error)
	Get(ctx context.Context, id string) (*model.Payment, error)
	List(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error)
}

// OrderRequest is what a member submits at checkout. ClientAmount is only
// honoured for the "other" type.
type OrderRequest struct {
	Type                string
	MembershipPlanID    string
	ProductID           string
	AddPersonalTraining bool
	ClientAmount        float64
}

type OrderResult struct {
	OrderID     string
	PaymentID   string
	AmountMinor int64
	Currency    string
	Key         string // gateway public key; empty in local mode
}

// Receipt carries the gateway fields returned by the checkout widget.
type Receipt struct {
	GatewayPaymentID string
	Signature        string
}

type ManualPaymentInput struct {
	MemberID            string
	Amount              int64
	Type                string
	Status              string
	DueDate             *time.Time
	MembershipPlanID    string
	ProductID           string
	AddPersonalTraining bool
	Notes               string
}

type paymentUC struct {
	payments repository.PaymentRepository
	members  repository.MemberRepository
	plans    repository.MembershipPlanRepository
	products repository.ProductRepository
	settings repository.SettingsRepository
	invoices *InvoiceAllocator
	gateway  adapter.PaymentGateway
	effects  EffectsUseCase
	tm       repository.TransactionManager
	currency string
	log      *zerolog.Logger
	now      func() time.Time
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	members repository.MemberRepository,
	plans repository.MembershipPlanRepository,
	products repository.ProductRepository,
	settings repository.SettingsRepository,
	invoices *InvoiceAllocator,
	gateway adapter.PaymentGateway,
	effects EffectsUseCase,
	tm repository.TransactionManager,
	currency string,
	logger *zerolog.Logger,
) *paymentUC {
	if currency == "" {
		currency = "INR"
	}
	l := logger.With().Str("component", "PaymentUseCase").Logger()
	return &paymentUC{
		payments: payments,
		members:  members,
		plans:    plans,
		products: products,
		settings: settings,
		invoices: invoices,
		gateway:  gateway,
		effects:  effects,
		tm:       tm,
		currency: currency,
		log:      &l,
		now:      time.Now,
	}
}

// pricedOrder is the outcome of validating an order request.
type pricedOrder struct {
	typ       model.PaymentType
	amount    int64
	planID    *string
	productID *string
}

func (u *paymentUC) CreateOrder(ctx context.Context, memberID string, req OrderRequest) (*OrderResult, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUseCase.CreateOrder")()

	member, err := u.members.FindByID(ctx, repository.NoTX, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	priced, err := u.priceOrder(ctx, member, req)
	if err != nil {
		return nil, err
	}

	paymentID := uuid.NewString()
	orderID, err := u.gateway.CreateOrder(ctx, priced.amount*100, u.currency, paymentID)
	if err != nil {
		log.Error().Err(err).Str("gateway", u.gateway.Name()).Msg("gateway order failed")
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	now := u.now()
	p := &model.Payment{
		ID:                  paymentID,
		MemberID:            member.ID,
		MemberName:          member.Name,
		Amount:              priced.amount,
		Currency:            u.currency,
		Type:                priced.typ,
		Status:              model.PaymentStatusPending,
		Date:                now,
		OrderID:             &orderID,
		MembershipPlanID:    priced.planID,
		AddPersonalTraining: req.AddPersonalTraining && priced.typ == model.PaymentTypeMembership,
		ProductID:           priced.productID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	// The invoice number and the row commit together so a failed insert never burns a number.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		inv, err := u.invoices.Next(ctx, tx)
		if err != nil {
			return err
		}
		p.InvoiceNumber = inv
		return u.payments.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentStatusPending))
	log.Info().Str("payment_id", p.ID).Str("order_id", orderID).Str("invoice", p.InvoiceNumber).
		Int64("amount", p.Amount).Str("type", string(p.Type)).Msg("order created")

	return &OrderResult{
		OrderID:     orderID,
		PaymentID:   p.ID,
		AmountMinor: p.AmountMinor(),
		Currency:    p.Currency,
		Key:         u.gateway.PublicKey(),
	}, nil
}

// priceOrder resolves the charge from plans, products and settings. It performs
// no writes, so any rejection leaves no trace.
func (u *paymentUC) priceOrder(ctx context.Context, member *model.Member, req OrderRequest) (*pricedOrder, error) {
	typ, err := model.ParsePaymentType(req.Type)
	if err != nil {
		return nil, err
	}
	out := &pricedOrder{typ: typ}

	switch typ {
	case model.PaymentTypeMembership:
		var plan *model.MembershipPlan
		if id := strings.TrimSpace(req.MembershipPlanID); id != "" {
			plan, err = u.plans.FindByID(ctx, repository.NoTX, id)
			if err != nil || !plan.Purchasable() {
				return nil, planErr(err)
			}
			out.planID = &plan.ID
		} else {
			if member.MembershipPlanID == nil {
				return nil, domain.ErrPlanNotFound
			}
			plan, err = u.plans.FindByID(ctx, repository.NoTX, *member.MembershipPlanID)
			if err != nil || plan.IsZero() {
				return nil, planErr(err)
			}
		}
		out.amount = plan.Price
		if req.AddPersonalTraining {
			price, err := u.personalTrainingPrice(ctx)
			if err != nil {
				return nil, err
			}
			out.amount += price
		}

	case model.PaymentTypeProduct:
		id := strings.TrimSpace(req.ProductID)
		if id == "" {
			return nil, domain.ErrProductNotFound
		}
		product, err := u.products.FindByID(ctx, repository.NoTX, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrProductNotFound
			}
			return nil, err
		}
		out.productID = &product.ID
		out.amount = product.Price

	case model.PaymentTypePersonalTraining:
		price, err := u.personalTrainingPrice(ctx)
		if err != nil {
			return nil, err
		}
		out.amount = price

	case model.PaymentTypeOther:
		a := req.ClientAmount
		if a <= 0 || math.IsNaN(a) || a > float64(model.MaxPaymentAmount) || a != math.Trunc(a) {
			return nil, domain.ErrInvalidAmount
		}
		out.amount = int64(a)
	}

	if !model.ValidAmount(out.amount) {
		return nil, domain.ErrInvalidAmount
	}
	return out, nil
}

func planErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return domain.ErrPlanNotFound
	}
	return err
}

func (u *paymentUC) personalTrainingPrice(ctx context.Context) (int64, error) {
	s, err := u.settings.Get(ctx, repository.NoTX)
	if err != nil {
		return 0, fmt.Errorf("read settings: %w", err)
	}
	return s.PersonalTrainingPriceOrDefault(), nil
}

func (u *paymentUC) Verify(ctx context.Context, orderID, memberID string, r Receipt) (*model.Payment, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "PaymentUseCase.Verify")()

	if strings.TrimSpace(orderID) == "" {
		return nil, domain.ErrOrderNotFound
	}
	p, err := u.payments.FindByOrderID(ctx, repository.NoTX, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if p.Status == model.PaymentStatusPaid {
		return nil, domain.ErrAlreadyCompleted
	}
	if !p.OwnedBy(memberID) {
		log.Warn().Str("order_id", orderID).Str("caller", memberID).Msg("verify by non-owner")
		return nil, domain.ErrForbidden
	}
	if u.gateway.Configured() {
		if r.GatewayPaymentID == "" || r.Signature == "" || !u.gateway.VerifySignature(orderID, r.GatewayPaymentID, r.Signature) {
			log.Warn().Str("order_id", orderID).Msg("signature verification failed")
			return nil, domain.ErrVerificationFailed
		}
	}

	change := model.StatusChange{
		To:                model.PaymentStatusPaid,
		At:                u.now(),
		RazorpayPaymentID: optional(r.GatewayPaymentID),
		RazorpaySignature: optional(r.Signature),
	}
	paid, ok, err := u.payments.TransitionStatus(ctx, repository.NoTX, repository.PaymentMatch{
		OrderID: orderID,
		From:    []model.PaymentStatus{model.PaymentStatusPending},
	}, change)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyCompleted
	}

	metrics.IncPayment(string(model.PaymentStatusPaid))
	metrics.AddPaymentRevenue(paid.Currency, paid.Amount)
	log.Info().Str("payment_id", paid.ID).Str("order_id", orderID).Msg("payment verified")

	return u.applyEffects(ctx, log, paid), nil
}

// applyEffects runs the effects engine for a payment that is already durably paid.
// Failures are logged; the reconciler re-drives them.
func (u *paymentUC) applyEffects(ctx context.Context, log *zerolog.Logger, paid *model.Payment) *model.Payment {
	if err := u.effects.Apply(ctx, paid.ID); err != nil {
		if !errors.Is(err, domain.ErrEffectsAlreadyApplied) {
			log.Error().Err(err).Str("payment_id", paid.ID).Msg("effects deferred to reconciler")
		}
		return paid
	}
	if fresh, err := u.payments.FindByID(ctx, repository.NoTX, paid.ID); err == nil {
		return fresh
	}
	return paid
}

func (u *paymentUC) CancelOrder(ctx context.Context, memberID, orderID string) (*model.Payment, error) {
	log := logging.With(ctx, u.log)
	if strings.TrimSpace(orderID) == "" || memberID == "" {
		return nil, domain.ErrCancelNotAllowed
	}
	p, ok, err := u.payments.TransitionStatus(ctx, repository.NoTX, repository.PaymentMatch{
		OrderID:  orderID,
		MemberID: memberID,
		From:     []model.PaymentStatus{model.PaymentStatusPending},
	}, model.StatusChange{To: model.PaymentStatusCancelled, At: u.now()})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrCancelNotAllowed
	}
	metrics.IncPayment(string(model.PaymentStatusCancelled))
	log.Info().Str("payment_id", p.ID).Str("order_id", orderID).Msg("order cancelled")
	return p, nil
}

func (u *paymentUC) CreateManual(ctx context.Context, in ManualPaymentInput) (*model.Payment, error) {
	log := logging.With(ctx, u.log)

	typ, err := model.ParsePaymentType(in.Type)
	if err != nil {
		return nil, err
	}
	status := model.PaymentStatusPending
	if strings.TrimSpace(in.Status) != "" {
		if status, err = model.ParsePaymentStatus(in.Status); err != nil {
			return nil, err
		}
	}
	if status == model.PaymentStatusCancelled {
		return nil, domain.ErrInvalidStatus
	}
	if !model.ValidAmount(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	member, err := u.members.FindByID(ctx, repository.NoTX, in.MemberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	now := u.now()
	p := &model.Payment{
		ID:                  uuid.NewString(),
		MemberID:            member.ID,
		MemberName:          member.Name,
		Amount:              in.Amount,
		Currency:            u.currency,
		Type:                typ,
		Status:              status,
		Date:                now,
		DueDate:             in.DueDate,
		AddPersonalTraining: in.AddPersonalTraining && typ == model.PaymentTypeMembership,
		Notes:               strings.TrimSpace(in.Notes),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if id := strings.TrimSpace(in.MembershipPlanID); id != "" {
		plan, err := u.plans.FindByID(ctx, repository.NoTX, id)
		if err != nil {
			return nil, planErr(err)
		}
		p.MembershipPlanID = &plan.ID
	}
	if id := strings.TrimSpace(in.ProductID); id != "" {
		product, err := u.products.FindByID(ctx, repository.NoTX, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrProductNotFound
			}
			return nil, err
		}
		p.ProductID = &product.ID
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		inv, err := u.invoices.Next(ctx, tx)
		if err != nil {
			return err
		}
		p.InvoiceNumber = inv
		return u.payments.Save(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment(string(p.Status))
	log.Info().Str("payment_id", p.ID).Str("invoice", p.InvoiceNumber).Str("status", string(p.Status)).Msg("manual payment recorded")

	if p.Status == model.PaymentStatusPaid {
		metrics.AddPaymentRevenue(p.Currency, p.Amount)
		return u.applyEffects(ctx, log, p), nil
	}
	return p, nil
}

func (u *paymentUC) UpdateStatus(ctx context.Context, id, status string) (*model.Payment, error) {
	log := logging.With(ctx, u.log)

	to, err := model.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}
	current, err := u.payments.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}

	updated, ok, err := u.payments.TransitionStatus(ctx, repository.NoTX, repository.PaymentMatch{
		ID:   id,
		From: model.PriorStatesFor(to),
	}, model.StatusChange{To: to, At: u.now()})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidTransition
	}

	metrics.IncPayment(string(to))
	log.Info().Str("payment_id", id).Str("from", string(current.Status)).Str("to", string(to)).Msg("payment status updated")

	if to == model.PaymentStatusPaid {
		metrics.AddPaymentRevenue(updated.Currency, updated.Amount)
		return u.applyEffects(ctx, log, updated), nil
	}
	return updated, nil
}

func (u *paymentUC) Get(ctx context.Context, id string) (*model.Payment, error) {
	return u.payments.FindByID(ctx, repository.NoTX, id)
}

func (u *paymentUC) List(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error) {
	return u.payments.List(ctx, repository.NoTX, f)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
