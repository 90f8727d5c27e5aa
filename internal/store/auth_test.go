package store

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/carpool-gateway/internal/logger"
	"github.com/iliyamo/carpool-gateway/internal/model"
	"github.com/iliyamo/carpool-gateway/internal/storage"
)

func TestAuthStoreRehydrates(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	a := NewAuthStore(ctx, kv, "s1", logger.NewNop())
	if !a.Initialized() || a.IsAuthenticated() {
		t.Fatal("fresh store should be initialized and anonymous")
	}
	a.SetAuthenticatedUser(model.User{ID: "42", Email: "admin@x.tn", Role: model.RoleAdmin}, "tok")

	b := NewAuthStore(ctx, kv, "s1", logger.NewNop())
	if !b.IsAuthenticated() || !b.IsAdmin() || b.Token() != "tok" {
		t.Fatalf("rehydrated state = %+v", b.State())
	}
	if b.IsDriver() || b.IsPassenger() {
		t.Fatal("role predicates disagree")
	}

	other := NewAuthStore(ctx, kv, "s2", logger.NewNop())
	if other.IsAuthenticated() {
		t.Fatal("sessions must not share identity")
	}
}

func TestAuthStoreDropsMalformedUser(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	_ = kv.Set(ctx, storage.SessionUserKey("s1"), "{not json")
	_ = kv.Set(ctx, storage.SessionTokenKey("s1"), "tok")

	a := NewAuthStore(ctx, kv, "s1", logger.NewNop())
	if a.IsAuthenticated() {
		t.Fatal("malformed user must be treated as absent")
	}
	if _, err := kv.Get(ctx, storage.SessionTokenKey("s1")); err != storage.ErrNotFound {
		t.Fatalf("token should be cleared, got err=%v", err)
	}
}

// downKV fails every read while down is set.
type downKV struct {
	storage.KV
	down bool
}

func (d *downKV) Get(ctx context.Context, key string) (string, error) {
	if d.down {
		return "", errors.New("dial tcp 127.0.0.1:6379: connection refused")
	}
	return d.KV.Get(ctx, key)
}

func TestAuthStoreKeepsSessionOnReadFailure(t *testing.T) {
	ctx := context.Background()
	kv := &downKV{KV: storage.NewMemory()}
	NewAuthStore(ctx, kv, "s1", logger.NewNop()).
		SetAuthenticatedUser(model.User{ID: "1", Role: model.RoleDriver}, "tok")

	kv.down = true
	if NewAuthStore(ctx, kv, "s1", logger.NewNop()).IsAuthenticated() {
		t.Fatal("unreadable store cannot yield a user")
	}

	kv.down = false
	a := NewAuthStore(ctx, kv, "s1", logger.NewNop())
	if !a.IsDriver() || a.Token() != "tok" {
		t.Fatalf("session lost after a failed read: %+v", a.State())
	}
}

func TestAuthStoreLogout(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	a := NewAuthStore(ctx, kv, "s1", logger.NewNop())
	a.SetAuthenticatedUser(model.User{ID: "1", Role: model.RolePassenger}, "tok")

	hooked := false
	a.OnLogout(func() { hooked = true })
	a.Logout()

	if a.IsAuthenticated() || a.Token() != "" || !hooked {
		t.Fatalf("state after logout = %+v, hook=%v", a.State(), hooked)
	}
	if _, err := kv.Get(ctx, storage.SessionUserKey("s1")); err != storage.ErrNotFound {
		t.Fatal("stored user not cleared")
	}
}

func TestAuthStoreUpdateUser(t *testing.T) {
	a := NewAuthStore(context.Background(), storage.NewMemory(), "s1", logger.NewNop())
	a.UpdateUserRole(model.RoleDriver)
	if a.IsAuthenticated() {
		t.Fatal("update on anonymous store must be a no-op")
	}

	a.SetAuthenticatedUser(model.User{ID: "1", Role: model.RolePassenger}, "tok")
	a.UpdateUserRole(model.RoleDriver)
	if !a.IsDriver() {
		t.Fatal("role not updated")
	}

	u := a.CurrentUser()
	u.Role = model.RoleAdmin
	if a.IsAdmin() {
		t.Fatal("CurrentUser must return a copy")
	}
}
