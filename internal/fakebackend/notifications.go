package fakebackend

import (
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
)

func (s *Server) registerNotifications(g *echo.Group) {
	g.POST("", s.createNotification)
	g.GET("/:id", s.notificationsForUser)
	g.PUT("/:id/status", s.updateNotificationStatus)
}

func notificationJSON(n *notification) echo.Map {
	status := "UNREAD"
	if n.Read {
		status = "READ"
	}
	return echo.Map{
		"id":        n.ID,
		"userId":    n.UserID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"relatedId": n.RelatedID,
		"status":    status,
		"createdAt": stamp(n.CreatedAt),
	}
}

func (s *Server) createNotification(c echo.Context) error {
	var req struct {
		UserID    any    `json:"userId"`
		Type      string `json:"type"`
		Title     string `json:"title"`
		Message   string `json:"message"`
		RelatedID string `json:"relatedId"`
	}
	if err := c.Bind(&req); err != nil {
		return msg(c, http.StatusBadRequest, "invalid body")
	}
	n := &notification{
		ID:        uuid.NewString(),
		UserID:    anyID(req.UserID),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		RelatedID: req.RelatedID,
		CreatedAt: time.Now().UTC(),
	}
	if n.UserID == 0 || n.Message == "" {
		return msg(c, http.StatusBadRequest, "userId and message are required")
	}
	s.mu.Lock()
	s.notifications[n.ID] = n
	body := notificationJSON(n)
	s.mu.Unlock()
	s.Log.Debug("notification stored", logger.Int64("user_id", n.UserID), logger.String("type", n.Type))
	return c.JSON(http.StatusCreated, body)
}

func (s *Server) notificationsForUser(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*notification, 0)
	for _, n := range s.notifications {
		if n.UserID == id {
			list = append(list, n)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	out := make([]echo.Map, 0, len(list))
	for _, n := range list {
		out = append(out, notificationJSON(n))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) updateNotificationStatus(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "READ" && status != "UNREAD" {
		return msg(c, http.StatusBadRequest, "Unknown status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[c.Param("id")]
	if !ok {
		return msg(c, http.StatusNotFound, "Notification not found")
	}
	n.Read = status == "READ"
	return c.JSON(http.StatusOK, notificationJSON(n))
}
