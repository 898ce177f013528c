//go:build !integration

package api_test

import (
	"context"
	"time"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/usecase"
)

type mockPaymentUC struct {
	CreateOrderFunc  func(ctx context.Context, memberID string, req usecase.OrderRequest) (*usecase.OrderResult, error)
	VerifyFunc       func(ctx context.Context, orderID, memberID string, r usecase.Receipt) (*model.Payment, error)
	CancelOrderFunc  func(ctx context.Context, memberID, orderID string) (*model.Payment, error)
	CreateManualFunc func(ctx context.Context, in usecase.ManualPaymentInput) (*model.Payment, error)
	UpdateStatusFunc func(ctx context.Context, id, status string) (*model.Payment, error)
	GetFunc          func(ctx context.Context, id string) (*model.Payment, error)
	ListFunc         func(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error)
}

func (m *mockPaymentUC) CreateOrder(ctx context.Context, memberID string, req usecase.OrderRequest) (*usecase.OrderResult, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, memberID, req)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) Verify(ctx context.Context, orderID, memberID string, r usecase.Receipt) (*model.Payment, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, orderID, memberID, r)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) CancelOrder(ctx context.Context, memberID, orderID string) (*model.Payment, error) {
	if m.CancelOrderFunc != nil {
		return m.CancelOrderFunc(ctx, memberID, orderID)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) CreateManual(ctx context.Context, in usecase.ManualPaymentInput) (*model.Payment, error) {
	if m.CreateManualFunc != nil {
		return m.CreateManualFunc(ctx, in)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) UpdateStatus(ctx context.Context, id, status string) (*model.Payment, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, domain.ErrOperationFailed
}

func (m *mockPaymentUC) Get(ctx context.Context, id string) (*model.Payment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPaymentUC) List(ctx context.Context, f repository.PaymentFilter) ([]*model.Payment, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, nil
}

type mockNotificationUC struct {
	ListForUserFunc func(ctx context.Context, userID string, unreadOnly bool) ([]*model.Notification, error)
	MarkReadFunc    func(ctx context.Context, userID, id string) error
}

func (m *mockNotificationUC) PaymentReceived(ctx context.Context, p *model.Payment) {}

func (m *mockNotificationUC) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*model.Notification, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID, unreadOnly)
	}
	return nil, nil
}

func (m *mockNotificationUC) MarkRead(ctx context.Context, userID, id string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, id)
	}
	return nil
}

type mockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

func samplePayment(memberID string, status model.PaymentStatus) *model.Payment {
	order := "ord_1"
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &model.Payment{
		ID:            "pay-1",
		MemberID:      memberID,
		MemberName:    "Asha",
		Amount:        1500,
		Currency:      "INR",
		Type:          model.PaymentTypeMembership,
		Status:        status,
		Date:          now,
		InvoiceNumber: "INV-2026-00001",
		OrderID:       &order,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
