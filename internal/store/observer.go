// Package store holds the per-session client state: one observable cell per
// logical collection, plus derived views computed from the current snapshot
// on every read. Stores never hold errors; they only accept data that was
// already fetched successfully.
package store

import "sync"

// Cell is an observable value. Every Set or Update replaces the snapshot
// and then calls each subscriber, in the caller's goroutine, with the new
// snapshot. Snapshots are treated as immutable: writers build new slices
// and callers must not modify what Get returns.
type Cell[T any] struct {
	mu  sync.RWMutex
	val T

	subMu sync.Mutex
	subs  map[int]func(T)
	next  int
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{val: initial, subs: make(map[int]func(T))}
}

func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.val = v
	c.mu.Unlock()
	c.notify(v)
}

// Update applies fn to the current snapshot atomically and publishes the
// result.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	v := fn(c.val)
	c.val = v
	c.mu.Unlock()
	c.notify(v)
	return v
}

// Subscribe registers fn and returns the func that removes it.
func (c *Cell[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Cell[T]) notify(v T) {
	c.subMu.Lock()
	fns := make([]func(T), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Change identifies which store of a session changed; the websocket stream
// forwards these to the UI.
type Change string

const (
	ChangeAuth          Change = "auth"
	ChangeRides         Change = "rides"
	ChangeBookings      Change = "bookings"
	ChangeNotifications Change = "notifications"
	ChangeUser          Change = "user"
)

// replaceFirst returns a copy of list where the first element matching
// pred has been replaced by fn(element).
func replaceFirst[T any](list []T, pred func(T) bool, fn func(T) T) ([]T, bool) {
	out := make([]T, len(list))
	copy(out, list)
	for i := range out {
		if pred(out[i]) {
			out[i] = fn(out[i])
			return out, true
		}
	}
	return out, false
}

func without[T any](list []T, pred func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if !pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func appended[T any](list []T, v T) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	return append(out, v)
}
