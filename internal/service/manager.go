package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/storage"
)

// SessionManager owns the live sessions of the gateway, keyed by session
// id. A session evicted from memory is rebuilt from durable storage on its
// next use.
type SessionManager struct {
	deps Deps
	log  logger.ILogger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(d Deps) *SessionManager {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	if d.KV == nil {
		d.KV = storage.NewMemory()
	}
	return &SessionManager{deps: d, log: log.Named("sessions"), sessions: make(map[string]*Session)}
}

// New creates a session with a fresh id.
func (m *SessionManager) New(ctx context.Context) *Session {
	return m.Open(ctx, uuid.NewString())
}

// Open returns the live session sid, rehydrating it from storage when it
// is not in memory.
func (m *SessionManager) Open(ctx context.Context, sid string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if ok {
		return s
	}

	fresh := NewSession(ctx, sid, m.deps)

	m.mu.Lock()
	if s, ok := m.sessions[sid]; ok {
		m.mu.Unlock()
		fresh.close()
		return s
	}
	m.sessions[sid] = fresh
	m.mu.Unlock()

	fresh.Auth.OnLogout(func() { m.Close(sid) })
	return fresh
}

func (m *SessionManager) Get(sid string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sid]
	return s, ok
}

// Close drops the session from memory. Its durable state is untouched.
func (m *SessionManager) Close(sid string) {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	delete(m.sessions, sid)
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// Sessions is a snapshot of the live sessions.
func (m *SessionManager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Deliver adds n to every live session signed in as userID.
func (m *SessionManager) Deliver(userID string, n model.Notification) {
	delivered := 0
	for _, s := range m.Sessions() {
		if u := s.Auth.CurrentUser(); u != nil && u.ID == userID {
			s.Notifications.AddNotification(n)
			delivered++
		}
	}
	m.log.Debug("notification delivered", logger.String("user_id", userID), logger.Int("sessions", delivered))
}

// EvictIdle closes sessions unused for longer than maxIdle.
func (m *SessionManager) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for _, s := range m.Sessions() {
		if s.IdleSince().Before(cutoff) {
			m.Close(s.ID)
			n++
		}
	}
	return n
}
