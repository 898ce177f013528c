package model

import "time"

type NotificationKind string

const NotificationKindPayment NotificationKind = "payment"

type Notification struct {
	ID        string // ULID, sortable by creation
	UserID    string
	Title     string
	Message   string
	Kind      NotificationKind
	IsRead    bool
	CreatedAt time.Time
}
