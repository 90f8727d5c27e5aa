package store

import (
	"sort"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

type NotificationsState struct {
	Notifications []model.Notification
	UserID        string
}

// NotificationsStore follows the AuthStore: when the signed-in user
// changes, the visible notifications are re-scoped to the new user.
type NotificationsStore struct {
	cell  *Cell[NotificationsState]
	unsub func()
}

func NewNotificationsStore(auth *AuthStore) *NotificationsStore {
	s := &NotificationsStore{cell: NewCell(NotificationsState{})}
	if auth != nil {
		if u := auth.CurrentUser(); u != nil {
			s.SetCurrentUserID(u.ID)
		}
		s.unsub = auth.Subscribe(func(st AuthState) {
			id := ""
			if st.User != nil {
				id = st.User.ID
			}
			if id != s.cell.Get().UserID {
				s.SetCurrentUserID(id)
			}
		})
	}
	return s
}

// Close drops the subscription to the AuthStore.
func (s *NotificationsStore) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

func (s *NotificationsStore) Subscribe(fn func(NotificationsState)) func() {
	return s.cell.Subscribe(fn)
}

func (s *NotificationsStore) CurrentUserID() string { return s.cell.Get().UserID }

// UserNotifications are the active user's notifications, newest first.
func (s *NotificationsStore) UserNotifications() []model.Notification {
	st := s.cell.Get()
	out := make([]model.Notification, 0, len(st.Notifications))
	for _, n := range st.Notifications {
		if n.UserID == st.UserID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *NotificationsStore) partition(read bool) []model.Notification {
	var out []model.Notification
	for _, n := range s.UserNotifications() {
		if n.Read == read {
			out = append(out, n)
		}
	}
	return out
}

func (s *NotificationsStore) Unread() []model.Notification { return s.partition(false) }
func (s *NotificationsStore) Read() []model.Notification   { return s.partition(true) }
func (s *NotificationsStore) UnreadCount() int             { return len(s.Unread()) }

func (s *NotificationsStore) SetNotifications(list []model.Notification) {
	cp := make([]model.Notification, len(list))
	copy(cp, list)
	s.cell.Update(func(st NotificationsState) NotificationsState {
		st.Notifications = cp
		return st
	})
}

// AddNotification inserts n, replacing any notification with the same id.
func (s *NotificationsStore) AddNotification(n model.Notification) {
	s.cell.Update(func(st NotificationsState) NotificationsState {
		list, ok := replaceFirst(st.Notifications,
			func(x model.Notification) bool { return n.ID != "" && x.ID == n.ID },
			func(model.Notification) model.Notification { return n })
		if !ok {
			list = appended(st.Notifications, n)
		}
		st.Notifications = list
		return st
	})
}

func (s *NotificationsStore) UpdateNotification(id string, patch model.NotificationPatch) {
	s.cell.Update(func(st NotificationsState) NotificationsState {
		if list, ok := replaceFirst(st.Notifications, func(n model.Notification) bool { return n.ID == id }, patch.Apply); ok {
			st.Notifications = list
		}
		return st
	})
}

func (s *NotificationsStore) MarkAsRead(id string) {
	read := true
	s.UpdateNotification(id, model.NotificationPatch{Read: &read})
}

// MarkAllAsRead flags every notification of the active user as read. It is
// idempotent and a no-op on an empty list.
func (s *NotificationsStore) MarkAllAsRead() {
	s.cell.Update(func(st NotificationsState) NotificationsState {
		out := make([]model.Notification, len(st.Notifications))
		for i, n := range st.Notifications {
			if n.UserID == st.UserID {
				n.Read = true
			}
			out[i] = n
		}
		st.Notifications = out
		return st
	})
}

func (s *NotificationsStore) RemoveNotification(id string) {
	s.cell.Update(func(st NotificationsState) NotificationsState {
		st.Notifications = without(st.Notifications, func(n model.Notification) bool { return n.ID == id })
		return st
	})
}

func (s *NotificationsStore) SetCurrentUserID(id string) {
	s.cell.Update(func(st NotificationsState) NotificationsState {
		st.UserID = id
		return st
	})
}

// ClearNotifications drops every notification but keeps the active user.
func (s *NotificationsStore) ClearNotifications() {
	s.cell.Update(func(st NotificationsState) NotificationsState {
		st.Notifications = nil
		return st
	})
}
