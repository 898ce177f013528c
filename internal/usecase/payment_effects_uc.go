package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/infra/logging"
	"gym-membership-billing/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

var _ EffectsUseCase = (*effectsUC)(nil)

// EffectsUseCase applies what a paid payment buys to the member exactly once.
type EffectsUseCase interface {
	// Apply returns domain.ErrEffectsAlreadyApplied when the payment was handled before.
	Apply(ctx context.Context, paymentID string) error
}

// PaymentNotifier is told about every payment whose effects were just committed.
type PaymentNotifier interface {
	PaymentReceived(ctx context.Context, p *model.Payment)
}

type effectsUC struct {
	payments repository.PaymentRepository
	members  repository.MemberRepository
	plans    repository.MembershipPlanRepository
	tm       repository.TransactionManager
	notifier PaymentNotifier
	log      *zerolog.Logger
	now      func() time.Time
}

func NewEffectsUseCase(
	payments repository.PaymentRepository,
	members repository.MemberRepository,
	plans repository.MembershipPlanRepository,
	tm repository.TransactionManager,
	notifier PaymentNotifier,
	logger *zerolog.Logger,
) *effectsUC {
	l := logger.With().Str("component", "EffectsUseCase").Logger()
	return &effectsUC{payments: payments, members: members, plans: plans, tm: tm, notifier: notifier, log: &l, now: time.Now}
}

func (u *effectsUC) Apply(ctx context.Context, paymentID string) error {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "EffectsUseCase.Apply")()

	var applied *model.Payment
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != model.PaymentStatusPaid {
			return domain.ErrInvalidTransition
		}
		if p.EffectsAppliedAt != nil {
			return domain.ErrEffectsAlreadyApplied
		}

		member, err := u.members.FindByID(ctx, tx, p.MemberID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrMemberNotFound
			}
			return err
		}

		now := u.now()
		if err := u.applyToMember(ctx, tx, p, member, now); err != nil {
			return err
		}
		if err := u.members.UpdateMembership(ctx, tx, member); err != nil {
			return err
		}
		if err := u.payments.MarkEffectsApplied(ctx, tx, p.ID, now); err != nil {
			return err
		}
		p.EffectsAppliedAt = &now
		applied = p
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrEffectsAlreadyApplied):
		metrics.IncEffects("skipped")
		return err
	case err != nil:
		metrics.IncEffects("failed")
		log.Error().Err(err).Str("payment_id", paymentID).Msg("apply payment effects failed")
		return fmt.Errorf("apply effects for %s: %w", paymentID, err)
	}

	metrics.IncEffects("applied")
	log.Info().Str("payment_id", applied.ID).Str("member_id", applied.MemberID).Str("type", string(applied.Type)).Msg("payment effects applied")
	if u.notifier != nil {
		u.notifier.PaymentReceived(ctx, applied)
	}
	return nil
}

// applyToMember mutates member in memory according to what p bought.
func (u *effectsUC) applyToMember(ctx context.Context, tx repository.Tx, p *model.Payment, member *model.Member, now time.Time) error {
	switch p.Type {
	case model.PaymentTypeMembership:
		planID := member.MembershipPlanID
		if p.MembershipPlanID != nil {
			planID = p.MembershipPlanID
		}
		var plan *model.MembershipPlan
		if planID != nil {
			found, err := u.plans.FindByID(ctx, tx, *planID)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				// A deleted plan only skips the expiry update; the rest still applies.
				u.log.Warn().Str("payment_id", p.ID).Str("plan_id", *planID).Msg("effective plan missing; membership left unchanged")
			case err != nil:
				return err
			default:
				plan = found
			}
		}
		if plan != nil {
			if plan.IsAddOn {
				member.HasPersonalTraining = true
			} else {
				member.ExtendMembership(plan, now)
				if p.MembershipPlanID != nil {
					member.SwitchPlan(plan)
				}
			}
		}
		if p.AddPersonalTraining {
			member.HasPersonalTraining = true
		}
	case model.PaymentTypePersonalTraining:
		member.HasPersonalTraining = true
	}
	return nil
}
