package service

import (
	"context"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
)

// LoadNotifications replaces the notifications store with the user's
// notifications from the notification service.
func (s *Session) LoadNotifications(ctx context.Context) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	list, err := s.be.Notifications.ListForUser(s.withToken(ctx), u.ID)
	if err != nil {
		return backendErr(err, "Failed to fetch notifications")
	}
	s.Notifications.SetCurrentUserID(u.ID)
	s.Notifications.SetNotifications(list)
	return nil
}

// ListNotifications reloads and returns the user's notifications, newest first.
func (s *Session) ListNotifications(ctx context.Context) ([]model.Notification, int, error) {
	if err := s.LoadNotifications(ctx); err != nil {
		return nil, 0, err
	}
	return s.Notifications.UserNotifications(), s.Notifications.UnreadCount(), nil
}

// MarkNotificationRead flags one notification as read locally and then on
// the notification service; the remote update is best effort.
func (s *Session) MarkNotificationRead(ctx context.Context, id string) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}
	s.Notifications.MarkAsRead(id)
	if _, err := s.be.Notifications.UpdateStatus(s.withToken(ctx), id, true); err != nil {
		s.log.Warning("mark notification read", logger.String("notification_id", id), logger.Error(err))
	}
	return nil
}

// MarkAllNotificationsRead is idempotent and safe with no notifications.
func (s *Session) MarkAllNotificationsRead(ctx context.Context) error {
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	s.Notifications.MarkAllAsRead()
	if err := s.be.Notifications.MarkAllRead(s.withToken(ctx), u.ID); err != nil {
		s.log.Warning("mark all notifications read", logger.String("user_id", u.ID), logger.Error(err))
	}
	return nil
}
