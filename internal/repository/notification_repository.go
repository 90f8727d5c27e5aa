package repository

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/carpool-gateway/internal/model"
)

const (
	statusRead   = "READ"
	statusUnread = "UNREAD"
)

// backendNotification is the notification service's record. Only id,
// userId, message and status are guaranteed; the rest is optional.
type backendNotification struct {
	ID        flexID `json:"id"`
	UserID    flexID `json:"userId"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	RelatedID flexID `json:"relatedId"`
	CreatedAt string `json:"createdAt"`
}

func (b backendNotification) toDomain() model.Notification {
	t := model.NotificationType(b.Type)
	if t == "" {
		t = model.NotifSystem
	}
	return model.Notification{
		ID:        string(b.ID),
		UserID:    string(b.UserID),
		Type:      t,
		Title:     b.Title,
		Message:   b.Message,
		Read:      b.Status == statusRead,
		RelatedID: string(b.RelatedID),
		CreatedAt: parseTime(b.CreatedAt),
	}
}

type NotificationRepo struct{ c *Client }

func NewNotificationRepo(c *Client) *NotificationRepo { return &NotificationRepo{c: c} }

func (r *NotificationRepo) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var list []backendNotification
	if err := r.c.call(ctx, "notifications.list", "Failed to fetch notifications", http.MethodGet,
		"/"+url.PathEscape(userID), nil, nil, &list); err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0, len(list))
	for _, bn := range list {
		out = append(out, bn.toDomain())
	}
	return out, nil
}

// Create stores a new unread notification for userID.
func (r *NotificationRepo) Create(ctx context.Context, userID string, t model.NotificationType, title, message, relatedID string) (model.Notification, error) {
	body := map[string]string{
		"userId":    userID,
		"message":   message,
		"type":      string(t),
		"title":     title,
		"relatedId": relatedID,
	}
	var bn backendNotification
	if err := r.c.call(ctx, "notifications.create", "Failed to create notification", http.MethodPost, "", nil, body, &bn); err != nil {
		return model.Notification{}, err
	}
	return bn.toDomain(), nil
}

func (r *NotificationRepo) UpdateStatus(ctx context.Context, id string, read bool) (model.Notification, error) {
	status := statusUnread
	if read {
		status = statusRead
	}
	var bn backendNotification
	if err := r.c.call(ctx, "notifications.update_status", "Failed to update notification", http.MethodPut,
		"/"+url.PathEscape(id)+"/status", url.Values{"status": {status}}, nil, &bn); err != nil {
		return model.Notification{}, err
	}
	return bn.toDomain(), nil
}

// MarkAllRead marks every unread notification of userID as read with one
// update per notification. Nothing is sent when all are already read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	list, err := r.ListForUser(ctx, userID)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, n := range list {
		if n.Read {
			continue
		}
		id := n.ID
		g.Go(func() error {
			_, err := r.UpdateStatus(gctx, id, true)
			return err
		})
	}
	return g.Wait()
}
