package store

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FetchFunc loads one entity by id.
type FetchFunc[K comparable, V any] func(ctx context.Context, id K) (V, error)

// EntityCache resolves ids to entities, fetching the missing ones
// concurrently with bounded fan-out. Results are merged by id, so the
// order in which fetches complete does not matter, and a failed id is
// simply absent from the result.
type EntityCache[K comparable, V any] struct {
	fetch FetchFunc[K, V]
	limit int

	mu    sync.RWMutex
	items map[K]V
}

func NewEntityCache[K comparable, V any](fetch FetchFunc[K, V], limit int) *EntityCache[K, V] {
	if limit <= 0 {
		limit = 8
	}
	return &EntityCache[K, V]{fetch: fetch, limit: limit, items: make(map[K]V)}
}

// Get returns the entities for ids. Ids already cached are not fetched
// again; duplicates are fetched once. The returned error is the first
// fetch failure, if any; the map still holds every id that resolved.
func (c *EntityCache[K, V]) Get(ctx context.Context, ids ...K) (map[K]V, error) {
	out := make(map[K]V, len(ids))
	var missing []K
	seen := make(map[K]struct{}, len(ids))

	c.mu.RLock()
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if v, ok := c.items[id]; ok {
			out[id] = v
			continue
		}
		missing = append(missing, id)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}

	var (
		g     errgroup.Group
		resMu sync.Mutex
		first error
	)
	g.SetLimit(c.limit)
	for _, id := range missing {
		id := id
		g.Go(func() error {
			v, err := c.fetch(ctx, id)
			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				if first == nil {
					first = err
				}
				return nil
			}
			out[id] = v
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	for _, id := range missing {
		if v, ok := out[id]; ok {
			c.items[id] = v
		}
	}
	c.mu.Unlock()
	return out, first
}

// One resolves a single id.
func (c *EntityCache[K, V]) One(ctx context.Context, id K) (V, bool, error) {
	m, err := c.Get(ctx, id)
	v, ok := m[id]
	return v, ok, err
}

func (c *EntityCache[K, V]) Peek(id K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	return v, ok
}

func (c *EntityCache[K, V]) Put(id K, v V) {
	c.mu.Lock()
	c.items[id] = v
	c.mu.Unlock()
}

func (c *EntityCache[K, V]) Invalidate(ids ...K) {
	c.mu.Lock()
	for _, id := range ids {
		delete(c.items, id)
	}
	c.mu.Unlock()
}

// Reset forgets everything.
func (c *EntityCache[K, V]) Reset() {
	c.mu.Lock()
	c.items = make(map[K]V)
	c.mu.Unlock()
}
