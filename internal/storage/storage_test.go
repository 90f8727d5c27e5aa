package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingKV struct{ KV }

func (failingKV) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func TestGetJSONErrors(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	var out struct{ Name string }

	if err := GetJSON(ctx, kv, "missing", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing key: err = %v", err)
	}

	_ = kv.Set(ctx, "bad", "{not json")
	if err := GetJSON(ctx, kv, "bad", &out); !errors.Is(err, ErrMalformed) {
		t.Fatalf("bad json: err = %v", err)
	}

	err := GetJSON(ctx, failingKV{kv}, "bad", &out)
	if err == nil || errors.Is(err, ErrMalformed) || errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure must stay distinct, err = %v", err)
	}

	if err := SetJSON(ctx, kv, "ok", struct{ Name string }{"x"}); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(ctx, kv, "ok", &out); err != nil || out.Name != "x" {
		t.Fatalf("out = %+v, err = %v", out, err)
	}
}

func TestRedisExpiresSessionKeysOnly(t *testing.T) {
	r := NewRedis(nil, "carpool:", time.Hour)
	if got := r.ttlFor(SessionUserKey("s1")); got != time.Hour {
		t.Fatalf("session user ttl = %v", got)
	}
	if got := r.ttlFor(SessionTokenKey("s1")); got != time.Hour {
		t.Fatalf("session token ttl = %v", got)
	}
	if got := r.ttlFor(PreferencesKey("7")); got != 0 {
		t.Fatalf("preferences ttl = %v, want none", got)
	}
}
