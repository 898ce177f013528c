package repository

import (
	"context"

	"gym-membership-billing/internal/domain/model"
)

// -----------------------------
// Notifications
// -----------------------------

type NotificationRepository interface {
	Save(ctx context.Context, tx Tx, n *model.Notification) error
	ListByUser(ctx context.Context, tx Tx, userID string, unreadOnly bool, limit int) ([]*model.Notification, error)
	// MarkRead returns domain.ErrNotFound when the notification does not belong to userID.
	MarkRead(ctx context.Context, tx Tx, userID, id string) error
}
