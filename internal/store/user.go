package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/storage"
)

type UserState struct {
	Profile     *model.User
	Preferences model.Preferences
	Settings    model.Settings
}

// UserStore is the viewer's editable profile, kept apart from the
// AuthStore copy so edits never corrupt the session identity. Preferences
// are persisted per user; settings live only as long as the session.
type UserStore struct {
	cell *Cell[UserState]
	kv   storage.KV
	log  logger.ILogger
}

func NewUserStore(kv storage.KV, log logger.ILogger) *UserStore {
	return &UserStore{
		cell: NewCell(UserState{Preferences: model.DefaultPreferences(), Settings: model.DefaultSettings()}),
		kv:   kv,
		log:  log,
	}
}

func (s *UserStore) Subscribe(fn func(UserState)) func() { return s.cell.Subscribe(fn) }

func (s *UserStore) Profile() *model.User {
	p := s.cell.Get().Profile
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (s *UserStore) Preferences() model.Preferences { return s.cell.Get().Preferences }
func (s *UserStore) Settings() model.Settings       { return s.cell.Get().Settings }

func (s *UserStore) Rating() float64 {
	if p := s.cell.Get().Profile; p != nil {
		return p.Rating
	}
	return 0
}

func (s *UserStore) TotalRides() int {
	if p := s.cell.Get().Profile; p != nil {
		return p.TotalRides
	}
	return 0
}

// SetProfile installs u as the viewer and rehydrates the viewer's stored
// preferences. Unreadable preferences fall back to the defaults and are
// removed; a failing store only falls back.
func (s *UserStore) SetProfile(ctx context.Context, u model.User) {
	prefs := model.DefaultPreferences()
	err := storage.GetJSON(ctx, s.kv, storage.PreferencesKey(u.ID), &prefs)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		prefs = model.DefaultPreferences()
	case errors.Is(err, storage.ErrMalformed):
		s.log.Warning("dropping unreadable preferences", logger.String("user_id", u.ID), logger.Error(err))
		prefs = model.DefaultPreferences()
		_ = s.kv.Delete(ctx, storage.PreferencesKey(u.ID))
	case err != nil:
		s.log.Warning("preferences unavailable", logger.String("user_id", u.ID), logger.Error(err))
		prefs = model.DefaultPreferences()
	}
	s.cell.Update(func(st UserState) UserState {
		st.Profile = &u
		st.Preferences = prefs
		return st
	})
}

func (s *UserStore) UpdateProfile(patch model.UserPatch) {
	s.cell.Update(func(st UserState) UserState {
		if st.Profile == nil {
			return st
		}
		u := patch.Apply(*st.Profile)
		st.Profile = &u
		return st
	})
}

// SetPreferences merges patch and persists the result for the current
// profile. Without a profile the change stays in memory.
func (s *UserStore) SetPreferences(patch model.PreferencesPatch) model.Preferences {
	st := s.cell.Update(func(st UserState) UserState {
		st.Preferences = patch.Apply(st.Preferences)
		return st
	})
	if st.Profile != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := storage.SetJSON(ctx, s.kv, storage.PreferencesKey(st.Profile.ID), st.Preferences); err != nil {
			s.log.Error("persist preferences", logger.String("user_id", st.Profile.ID), logger.Error(err))
		}
	}
	return st.Preferences
}

func (s *UserStore) SetSettings(patch model.SettingsPatch) model.Settings {
	st := s.cell.Update(func(st UserState) UserState {
		st.Settings = patch.Apply(st.Settings)
		return st
	})
	return st.Settings
}

// ClearProfile forgets the viewer; stored preferences are kept for the
// next login.
func (s *UserStore) ClearProfile() {
	s.cell.Set(UserState{Preferences: model.DefaultPreferences(), Settings: model.DefaultSettings()})
}
