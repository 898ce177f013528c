package telegram

import (
	"context"
	"fmt"

	"gym-membership-billing/internal/domain/ports/adapter"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var (
	_ adapter.Messenger = (*BotMessenger)(nil)
	_ adapter.Messenger = (*NoopMessenger)(nil)
)

// sender is the slice of tgbotapi.BotAPI the messenger needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotMessenger pushes plain-text messages through the Telegram Bot API.
type BotMessenger struct {
	bot    sender
	logger *zerolog.Logger
}

func NewBotMessenger(token string, logger *zerolog.Logger) (*BotMessenger, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	l := logger.With().Str("component", "telegram").Str("bot", bot.Self.UserName).Logger()
	return &BotMessenger{bot: bot, logger: &l}, nil
}

func (m *BotMessenger) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := m.bot.Send(msg); err != nil {
		m.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
		return err
	}
	return nil
}

// NoopMessenger logs instead of sending; used when no bot token is configured.
type NoopMessenger struct {
	logger *zerolog.Logger
}

func NewNoopMessenger(logger *zerolog.Logger) *NoopMessenger {
	l := logger.With().Str("component", "telegram").Str("mode", "noop").Logger()
	return &NoopMessenger{logger: &l}
}

func (m *NoopMessenger) Send(ctx context.Context, chatID int64, text string) error {
	m.logger.Debug().Int64("chat_id", chatID).Str("text", text).Msg("telegram push skipped")
	return nil
}
