package service

import (
	"context"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/queue"
)

// Notifier tells the other party of a booking that something happened.
// Workflows treat its errors as secondary: they are logged, never returned.
type Notifier interface {
	BookingChanged(ctx context.Context, ev queue.BookingEvent) error
}

// Sink receives notifications for users who may have live sessions.
type Sink interface {
	Deliver(userID string, n model.Notification)
}

// DirectNotifier stores the notification through the notification service
// and pushes it to the recipient's live sessions. It is also the handler
// the queue consumer runs for each event.
type DirectNotifier struct {
	Notifications NotificationBackend
	Sink          Sink
	Log           logger.ILogger
}

func (n *DirectNotifier) BookingChanged(ctx context.Context, ev queue.BookingEvent) error {
	to := ev.Recipient()
	if to == "" {
		return nil
	}
	created, err := n.Notifications.Create(ctx, to, ev.NotificationType(), ev.Title(), ev.Message(), ev.BookingID)
	if err != nil {
		n.Log.Warning("create booking notification",
			logger.String("booking_id", ev.BookingID), logger.String("user_id", to), logger.Error(err))
		return err
	}
	if created.Type == "" || created.Type == model.NotifSystem {
		created.Type = ev.NotificationType()
	}
	if created.Title == "" {
		created.Title = ev.Title()
	}
	if created.RelatedID == "" {
		created.RelatedID = ev.BookingID
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = ev.OccurredAt
	}
	if n.Sink != nil {
		n.Sink.Deliver(to, created)
	}
	return nil
}

// QueueNotifier hands the event to the broker; the consumer side turns it
// into a notification.
type QueueNotifier struct {
	Publisher *queue.Publisher
}

func (n *QueueNotifier) BookingChanged(ctx context.Context, ev queue.BookingEvent) error {
	return n.Publisher.Publish(ctx, ev)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) BookingChanged(context.Context, queue.BookingEvent) error { return nil }

// notify sends ev best effort on a detached context so a cancelled request
// does not lose the notification.
func (s *Session) notify(ctx context.Context, ev queue.BookingEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.notifier.BookingChanged(s.withToken(nctx), ev); err != nil {
		s.log.Warning("booking notification not sent",
			logger.String("kind", string(ev.Kind)), logger.String("booking_id", ev.BookingID), logger.Error(err))
	}
}
