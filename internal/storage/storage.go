// Package storage is the durable key-value store behind session state and
// user preferences. Values are opaque strings; JSON helpers sit on top.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("storage: key not found")
	// ErrMalformed is returned by GetJSON when the stored value does not decode.
	ErrMalformed = errors.New("storage: malformed value")
)

// KV is a string key-value store. Delete of a missing key is not an error.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into out. A missing key returns
// ErrNotFound, malformed content ErrMalformed. Any other error comes from
// the backing store and says nothing about the value.
func GetJSON(ctx context.Context, kv KV, key string, out any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: decode %q: %v", ErrMalformed, key, err)
	}
	return nil
}

func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	return kv.Set(ctx, key, string(buf))
}

const sessionKeyPrefix = "session:"

func SessionUserKey(sid string) string    { return sessionKeyPrefix + sid + ":currentUser" }
func SessionTokenKey(sid string) string   { return sessionKeyPrefix + sid + ":token" }
func PreferencesKey(userID string) string { return "prefs:" + userID }

// IsSessionKey reports whether key belongs to a session rather than to a
// user.
func IsSessionKey(key string) bool { return strings.HasPrefix(key, sessionKeyPrefix) }
