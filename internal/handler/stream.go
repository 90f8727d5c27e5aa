package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/store"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// changeFrame is one websocket message: the store that changed.
type changeFrame struct {
	Store store.Change `json:"store"`
	At    time.Time    `json:"at"`
}

// StreamHandler pushes the session's store changes over a websocket.
type StreamHandler struct {
	base
	Upgrader websocket.Upgrader
}

func NewStreamHandler(log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		base:     newBase(log, "ws"),
		Upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Changes handles GET /v1/ws. Each store change is sent as
// {"store": "...", "at": ...}. Changes are dropped while the client is
// too slow to drain its buffer; the client re-reads state on demand.
func (h *StreamHandler) Changes(c echo.Context) error {
	sess, err := session(c)
	if err != nil {
		return h.fail(c, err)
	}
	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		return nil
	}
	defer conn.Close()

	send := make(chan changeFrame, 64)
	unwatch := sess.WatchChanges(func(ch store.Change) {
		select {
		case send <- changeFrame{Store: ch, At: time.Now().UTC()}:
		default:
		}
	})
	defer unwatch()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case f := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				h.log.Debug("stream write failed", logger.String("session", sess.ID), logger.Error(err))
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}
