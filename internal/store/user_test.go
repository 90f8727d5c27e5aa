package store

import (
	"context"
	"testing"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/storage"
)

func TestUserStorePreferencesSurviveSessions(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	u := model.User{ID: "7"}

	s := NewUserStore(kv, logger.NewNop())
	s.SetProfile(ctx, u)
	dark := model.ThemeDark
	seats := 3
	s.SetPreferences(model.PreferencesPatch{Theme: &dark, PreferredSeats: &seats})

	lang := "fr"
	s.SetSettings(model.SettingsPatch{Language: &lang})

	next := NewUserStore(kv, logger.NewNop())
	next.SetProfile(ctx, u)
	p := next.Preferences()
	if p.Theme != model.ThemeDark || p.PreferredSeats != 3 || !p.NotificationsEnabled {
		t.Fatalf("preferences = %+v", p)
	}
	if next.Settings().Language != "en" {
		t.Fatal("settings must not outlive the session")
	}
}

func TestUserStoreUnreadablePreferences(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	_ = kv.Set(ctx, storage.PreferencesKey("7"), "[")

	s := NewUserStore(kv, logger.NewNop())
	s.SetProfile(ctx, model.User{ID: "7"})
	if s.Preferences() != model.DefaultPreferences() {
		t.Fatalf("want defaults, got %+v", s.Preferences())
	}
	if _, err := kv.Get(ctx, storage.PreferencesKey("7")); err != storage.ErrNotFound {
		t.Fatal("unreadable entry should be removed")
	}
}

func TestUserStoreKeepsPreferencesOnReadFailure(t *testing.T) {
	ctx := context.Background()
	kv := &downKV{KV: storage.NewMemory()}
	u := model.User{ID: "7"}
	s := NewUserStore(kv, logger.NewNop())
	s.SetProfile(ctx, u)
	dark := model.ThemeDark
	s.SetPreferences(model.PreferencesPatch{Theme: &dark})

	kv.down = true
	s.SetProfile(ctx, u)
	if s.Preferences() != model.DefaultPreferences() {
		t.Fatalf("want defaults while storage is down, got %+v", s.Preferences())
	}

	kv.down = false
	s.SetProfile(ctx, u)
	if s.Preferences().Theme != model.ThemeDark {
		t.Fatal("stored preferences were removed after a failed read")
	}
}

func TestUserStoreWithoutProfile(t *testing.T) {
	kv := storage.NewMemory()
	s := NewUserStore(kv, logger.NewNop())
	dark := model.ThemeDark
	if got := s.SetPreferences(model.PreferencesPatch{Theme: &dark}); got.Theme != model.ThemeDark {
		t.Fatal("in-memory change lost")
	}
	s.UpdateProfile(model.UserPatch{})
	if s.Profile() != nil {
		t.Fatal("UpdateProfile created a profile")
	}
}
