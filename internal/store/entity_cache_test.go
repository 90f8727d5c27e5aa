package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestEntityCacheFetchesMissingOnce(t *testing.T) {
	var calls atomic.Int32
	c := NewEntityCache[string, string](func(_ context.Context, id string) (string, error) {
		calls.Add(1)
		// Later ids finish first; results are merged by id.
		if id == "a" {
			time.Sleep(5 * time.Millisecond)
		}
		return "user-" + id, nil
	}, 2)

	got, err := c.Get(context.Background(), "a", "b", "a", "c")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got["a"] != "user-a" || got["c"] != "user-c" {
		t.Fatalf("got %v", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("fetches = %d, want 3", calls.Load())
	}

	if _, err := c.Get(context.Background(), "a", "b"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Fatal("cached ids were fetched again")
	}
}

func TestEntityCacheReportsFirstError(t *testing.T) {
	boom := errors.New("boom")
	c := NewEntityCache[string, int](func(_ context.Context, id string) (int, error) {
		if id == "bad" {
			return 0, boom
		}
		return len(id), nil
	}, 0)

	got, err := c.Get(context.Background(), "ok", "bad")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if got["ok"] != 2 {
		t.Fatal("successful ids must still resolve")
	}
	if _, ok := got["bad"]; ok {
		t.Fatal("failed id must be absent")
	}
	if _, ok := c.Peek("bad"); ok {
		t.Fatal("failures must not be cached")
	}
}

func TestEntityCachePutInvalidate(t *testing.T) {
	c := NewEntityCache[string, int](func(context.Context, string) (int, error) { return 7, nil }, 1)
	c.Put("x", 1)
	if v, ok, _ := c.One(context.Background(), "x"); !ok || v != 1 {
		t.Fatalf("One = %d,%v", v, ok)
	}
	c.Invalidate("x")
	if v, _, _ := c.One(context.Background(), "x"); v != 7 {
		t.Fatalf("after invalidate = %d, want refetch", v)
	}
	c.Reset()
	if _, ok := c.Peek("x"); ok {
		t.Fatal("Reset kept entries")
	}
}
