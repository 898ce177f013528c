package sched

import (
	"context"
	"errors"
	"time"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/infra/metrics"
	"gym-membership-billing/internal/usecase"

	"github.com/rs/zerolog"
)

// EffectsReconciler periodically re-drives paid payments whose effects were never
// applied, e.g. when the process died between the paid transition and the effects tx.
type EffectsReconciler struct {
	effects    usecase.EffectsUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how long a paid payment may wait before a retry
	batch      int
	log        *zerolog.Logger
}

func NewEffectsReconciler(effects usecase.EffectsUseCase, payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *EffectsReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	l := logger.With().Str("component", "EffectsReconciler").Logger()
	return &EffectsReconciler{effects: effects, payments: payments, interval: interval, staleAfter: staleAfter, batch: 200, log: &l}
}

// Run blocks until ctx is cancelled.
func (w *EffectsReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("starting effects reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping effects reconciler")
			return ctx.Err()
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one scan and returns how many payments were reconciled.
func (w *EffectsReconciler) Tick(ctx context.Context) int {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.payments.ListPaidWithoutEffects(ctx, repository.NoTX, cutoff, w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("list paid payments without effects failed")
		return 0
	}
	done := 0
	for _, p := range stale {
		if ctx.Err() != nil {
			break
		}
		err := w.effects.Apply(ctx, p.ID)
		switch {
		case err == nil:
			done++
			metrics.IncEffects("reconciled")
			w.log.Info().Str("payment_id", p.ID).Msg("reconciled payment effects")
		case errors.Is(err, domain.ErrEffectsAlreadyApplied):
		default:
			w.log.Warn().Err(err).Str("payment_id", p.ID).Msg("reconcile payment effects failed")
		}
	}
	return done
}
