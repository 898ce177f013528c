package postgres

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"
)

var _ repository.NotificationRepository = (*notificationRepo)(nil)

type notificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepo(pool *pgxpool.Pool) *notificationRepo {
	return &notificationRepo{pool: pool}
}

// Save assigns a ULID when the caller left ID empty so ids sort by creation.
func (r *notificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.ID == "" {
		n.ID = ulid.MustNew(ulid.Timestamp(n.CreatedAt), rand.Reader).String()
	}
	const q = `
INSERT INTO notifications (id, user_id, title, message, kind, is_read, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := execSQL(ctx, r.pool, tx, q, n.ID, n.UserID, n.Title, n.Message, string(n.Kind), n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("Save notification: %w", mapErr(err))
	}
	return nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT id, user_id, title, message, kind, is_read, created_at FROM notifications WHERE user_id=$1`
	if unreadOnly {
		q += " AND NOT is_read"
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT $2;"
	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx repository.Tx, userID, id string) error {
	ct, err := execSQL(ctx, r.pool, tx, `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2;`, id, userID)
	if err != nil {
		return mapErr(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
