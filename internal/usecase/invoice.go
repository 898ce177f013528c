package usecase

import (
	"context"
	"fmt"
	"time"

	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/infra/metrics"
)

// InvoiceAllocator turns the shared invoice counter into INV-<year>-<seq> numbers.
type InvoiceAllocator struct {
	counters repository.CounterRepository
	now      func() time.Time
}

func NewInvoiceAllocator(counters repository.CounterRepository) *InvoiceAllocator {
	return &InvoiceAllocator{counters: counters, now: time.Now}
}

// Next allocates the next invoice number. The sequence is global across years.
func (a *InvoiceAllocator) Next(ctx context.Context, tx repository.Tx) (string, error) {
	seq, err := a.counters.Next(ctx, tx, model.InvoiceSeries)
	if err != nil {
		return "", fmt.Errorf("allocate invoice number: %w", err)
	}
	metrics.IncInvoiceAllocated()
	return model.FormatInvoiceNumber(a.now().Year(), seq), nil
}
