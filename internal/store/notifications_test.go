package store

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/storage"
)

func signedIn(t *testing.T, userID string) *AuthStore {
	t.Helper()
	a := NewAuthStore(context.Background(), storage.NewMemory(), "sid", logger.NewNop())
	a.SetAuthenticatedUser(model.User{ID: userID, Role: model.RolePassenger}, "tok")
	return a
}

func TestNotificationsFollowAuth(t *testing.T) {
	auth := signedIn(t, "u1")
	s := NewNotificationsStore(auth)
	defer s.Close()

	now := time.Now()
	s.SetNotifications([]model.Notification{
		{ID: "n1", UserID: "u1", CreatedAt: now.Add(-time.Hour)},
		{ID: "n2", UserID: "u1", CreatedAt: now},
		{ID: "n3", UserID: "u2", CreatedAt: now},
	})

	got := s.UserNotifications()
	if len(got) != 2 || got[0].ID != "n2" {
		t.Fatalf("want newest first for u1, got %+v", got)
	}

	auth.SetAuthenticatedUser(model.User{ID: "u2"}, "tok2")
	if s.CurrentUserID() != "u2" {
		t.Fatalf("current user = %q", s.CurrentUserID())
	}
	if n := len(s.UserNotifications()); n != 1 {
		t.Fatalf("u2 notifications = %d, want 1", n)
	}

	auth.Logout()
	if s.CurrentUserID() != "" {
		t.Fatal("logout should clear the active user")
	}
}

func TestMarkAllAsReadIsIdempotent(t *testing.T) {
	s := NewNotificationsStore(signedIn(t, "u1"))
	defer s.Close()

	s.MarkAllAsRead()
	if s.UnreadCount() != 0 {
		t.Fatal("empty store should stay empty")
	}

	s.SetNotifications([]model.Notification{
		{ID: "n1", UserID: "u1"},
		{ID: "n2", UserID: "u1", Read: true},
		{ID: "n3", UserID: "u2"},
	})
	s.MarkAllAsRead()
	first := s.UnreadCount()
	s.MarkAllAsRead()
	if first != 0 || s.UnreadCount() != 0 {
		t.Fatalf("unread after mark all = %d then %d", first, s.UnreadCount())
	}
	if len(s.Read()) != 2 {
		t.Fatalf("read = %d, want 2", len(s.Read()))
	}
}

func TestAddNotificationReplacesSameID(t *testing.T) {
	s := NewNotificationsStore(signedIn(t, "u1"))
	defer s.Close()

	s.AddNotification(model.Notification{ID: "n1", UserID: "u1", Title: "old"})
	s.AddNotification(model.Notification{ID: "n1", UserID: "u1", Title: "new"})
	list := s.UserNotifications()
	if len(list) != 1 || list[0].Title != "new" {
		t.Fatalf("got %+v", list)
	}

	s.MarkAsRead("n1")
	if s.UnreadCount() != 0 {
		t.Fatal("MarkAsRead had no effect")
	}
	s.RemoveNotification("n1")
	if len(s.UserNotifications()) != 0 {
		t.Fatal("RemoveNotification had no effect")
	}
}
