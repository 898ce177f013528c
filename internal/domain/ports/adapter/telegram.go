package adapter

import "context"

// Messenger pushes a plain-text message to a chat outside the dashboard.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
}
