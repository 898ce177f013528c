package usecase

import (
	"context"
	"fmt"

	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/adapter"
	"gym-membership-billing/internal/domain/ports/repository"
	"gym-membership-billing/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	PaymentNotifier
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// Dispatcher runs tasks off the caller's goroutine. worker.Pool satisfies it.
type Dispatcher interface {
	Submit(task func(ctx context.Context) error) error
}

const paymentReceivedTitle = "Payment Received"

type notificationUC struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	members       repository.MemberRepository
	messenger     adapter.Messenger
	dispatcher    Dispatcher
	log           *zerolog.Logger
}

func NewNotificationUseCase(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	members repository.MemberRepository,
	messenger adapter.Messenger,
	dispatcher Dispatcher,
	logger *zerolog.Logger,
) *notificationUC {
	l := logger.With().Str("component", "NotificationUseCase").Logger()
	return &notificationUC{
		notifications: notifications,
		users:         users,
		members:       members,
		messenger:     messenger,
		dispatcher:    dispatcher,
		log:           &l,
	}
}

// PaymentReceived queues the fan-out and returns immediately. Nothing here can
// fail the payment: a full queue is logged and counted.
func (n *notificationUC) PaymentReceived(ctx context.Context, p *model.Payment) {
	snapshot := *p
	err := n.dispatcher.Submit(func(ctx context.Context) error {
		return n.fanOut(ctx, &snapshot)
	})
	if err != nil {
		metrics.IncNotification("all", "dropped")
		n.log.Warn().Err(err).Str("payment_id", p.ID).Msg("payment notification dropped")
	}
}

func adminMessage(p *model.Payment) string {
	return fmt.Sprintf("Payment Received: ₹%d from %s (%s)", p.Amount, p.MemberName, p.InvoiceNumber)
}

func memberMessage(p *model.Payment) string {
	return fmt.Sprintf("Your payment of ₹%d was received (%s)", p.Amount, p.InvoiceNumber)
}

func (n *notificationUC) fanOut(ctx context.Context, p *model.Payment) error {
	var failed int

	admins, err := n.users.ListActiveAdmins(ctx, repository.NoTX)
	if err != nil {
		metrics.IncNotification("admin", "failed")
		n.log.Error().Err(err).Str("payment_id", p.ID).Msg("list admins failed")
		failed++
	}
	text := adminMessage(p)
	for _, a := range admins {
		if err := n.save(ctx, a.ID, text); err != nil {
			metrics.IncNotification("admin", "failed")
			n.log.Error().Err(err).Str("user_id", a.ID).Str("payment_id", p.ID).Msg("admin notification failed")
			failed++
			continue
		}
		metrics.IncNotification("admin", "sent")
		if a.TelegramChatID != nil && n.messenger != nil {
			if err := n.messenger.Send(ctx, *a.TelegramChatID, text); err != nil {
				metrics.IncNotification("telegram", "failed")
				n.log.Warn().Err(err).Str("user_id", a.ID).Msg("telegram push failed")
			} else {
				metrics.IncNotification("telegram", "sent")
			}
		}
	}

	member, err := n.members.FindByID(ctx, repository.NoTX, p.MemberID)
	if err == nil && member.UserID != "" {
		err = n.save(ctx, member.UserID, memberMessage(p))
	}
	if err != nil {
		metrics.IncNotification("member", "failed")
		n.log.Error().Err(err).Str("member_id", p.MemberID).Str("payment_id", p.ID).Msg("member notification failed")
		failed++
	} else {
		metrics.IncNotification("member", "sent")
	}

	if failed > 0 {
		return fmt.Errorf("payment %s: %d notification(s) failed", p.ID, failed)
	}
	return nil
}

func (n *notificationUC) save(ctx context.Context, userID, text string) error {
	return n.notifications.Save(ctx, repository.NoTX, &model.Notification{
		UserID:  userID,
		Title:   paymentReceivedTitle,
		Message: text,
		Kind:    model.NotificationKindPayment,
	})
}

func (n *notificationUC) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*model.Notification, error) {
	return n.notifications.ListByUser(ctx, repository.NoTX, userID, unreadOnly, 50)
}

func (n *notificationUC) MarkRead(ctx context.Context, userID, id string) error {
	return n.notifications.MarkRead(ctx, repository.NoTX, userID, id)
}
