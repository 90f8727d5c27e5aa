package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/storage"
)

// AuthState is either anonymous (User nil) or authenticated.
type AuthState struct {
	User        *model.User
	Token       string
	Initialized bool
}

// AuthStore is the session identity. Every change is mirrored to durable
// storage so a restarted gateway finds the same user and token.
type AuthStore struct {
	cell     *Cell[AuthState]
	kv       storage.KV
	sid      string
	log      logger.ILogger
	onLogout func()
}

// NewAuthStore rehydrates the session sid from kv. Malformed entries are
// logged, removed and treated as absent. A failing store leaves the entries
// alone and the session starts anonymous.
func NewAuthStore(ctx context.Context, kv storage.KV, sid string, log logger.ILogger) *AuthStore {
	s := &AuthStore{kv: kv, sid: sid, log: log}
	s.cell = NewCell(s.load(ctx))
	return s
}

func (s *AuthStore) load(ctx context.Context) AuthState {
	state := AuthState{Initialized: true}

	var u model.User
	err := storage.GetJSON(ctx, s.kv, storage.SessionUserKey(s.sid), &u)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return state
	case errors.Is(err, storage.ErrMalformed):
		s.log.Warning("dropping unreadable stored user", logger.String("sid", s.sid), logger.Error(err))
		s.clearStorage(ctx)
		return state
	case err != nil:
		s.log.Warning("session storage unavailable", logger.String("sid", s.sid), logger.Error(err))
		return state
	}

	token, err := s.kv.Get(ctx, storage.SessionTokenKey(s.sid))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// A user without a token cannot call the backends.
		s.clearStorage(ctx)
		return state
	case err != nil:
		s.log.Warning("session storage unavailable", logger.String("sid", s.sid), logger.Error(err))
		return state
	}
	state.User = &u
	state.Token = token
	return state
}

// OnLogout registers the hook run after Logout, e.g. to close the session.
func (s *AuthStore) OnLogout(fn func()) { s.onLogout = fn }

func (s *AuthStore) State() AuthState { return s.cell.Get() }

func (s *AuthStore) Subscribe(fn func(AuthState)) func() { return s.cell.Subscribe(fn) }

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *AuthStore) CurrentUser() *model.User {
	u := s.cell.Get().User
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (s *AuthStore) Token() string         { return s.cell.Get().Token }
func (s *AuthStore) Initialized() bool     { return s.cell.Get().Initialized }
func (s *AuthStore) IsAuthenticated() bool { return s.cell.Get().User != nil }
func (s *AuthStore) IsAdmin() bool         { return s.hasRole(model.RoleAdmin) }
func (s *AuthStore) IsDriver() bool        { return s.hasRole(model.RoleDriver) }
func (s *AuthStore) IsPassenger() bool     { return s.hasRole(model.RolePassenger) }

func (s *AuthStore) hasRole(r model.Role) bool {
	u := s.cell.Get().User
	return u != nil && u.Role == r
}

func (s *AuthStore) SetAuthenticatedUser(u model.User, token string) {
	s.cell.Set(AuthState{User: &u, Token: token, Initialized: true})
	s.persist()
}

// UpdateUserRole changes the role of the signed-in user; no-op when anonymous.
func (s *AuthStore) UpdateUserRole(r model.Role) {
	s.UpdateUser(model.UserPatch{Role: &r})
}

// UpdateUser merges patch into the signed-in user; no-op when anonymous.
func (s *AuthStore) UpdateUser(patch model.UserPatch) {
	changed := false
	s.cell.Update(func(st AuthState) AuthState {
		if st.User == nil {
			return st
		}
		u := patch.Apply(*st.User)
		st.User = &u
		changed = true
		return st
	})
	if changed {
		s.persist()
	}
}

// Logout returns the store to anonymous, clears storage and runs the
// logout hook.
func (s *AuthStore) Logout() {
	s.cell.Set(AuthState{Initialized: true})
	s.persist()
	if s.onLogout != nil {
		s.onLogout()
	}
}

func (s *AuthStore) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st := s.cell.Get()
	if st.User == nil {
		s.clearStorage(ctx)
		return
	}
	if err := storage.SetJSON(ctx, s.kv, storage.SessionUserKey(s.sid), st.User); err != nil {
		s.log.Error("persist session user", logger.String("sid", s.sid), logger.Error(err))
	}
	if err := s.kv.Set(ctx, storage.SessionTokenKey(s.sid), st.Token); err != nil {
		s.log.Error("persist session token", logger.String("sid", s.sid), logger.Error(err))
	}
}

func (s *AuthStore) clearStorage(ctx context.Context) {
	for _, k := range []string{storage.SessionUserKey(s.sid), storage.SessionTokenKey(s.sid)} {
		if err := s.kv.Delete(ctx, k); err != nil {
			s.log.Error("clear session storage", logger.String("key", k), logger.Error(err))
		}
	}
}
