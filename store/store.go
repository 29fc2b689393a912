// Package store implements the client-side query cache: a keyed store of
// remote resource snapshots with staleness tracking, change subscriptions,
// and optimistic mutations with rollback.
package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultStaleAfter is used when New is given a zero staleness window.
const DefaultStaleAfter = 5 * time.Minute

// entry is one cached resource snapshot.
type entry struct {
	value     interface{}
	fetchedAt time.Time
}

// Store is a keyed cache of remote resource values. Values written through
// Set are immediately visible to all readers; subscribers to a key are
// notified on every Set and Invalidate. All methods are safe for
// concurrent use.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	subs       map[string]map[int]chan struct{}
	nextSubID  int
	staleAfter time.Duration

	group singleflight.Group

	// nowFunc is swappable in tests.
	nowFunc func() time.Time
}

// New creates a Store whose entries go stale after the given window.
func New(staleAfter time.Duration) *Store {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Store{
		entries:    make(map[string]entry),
		subs:       make(map[string]map[int]chan struct{}),
		staleAfter: staleAfter,
		nowFunc:    time.Now,
	}
}

// Get returns the current cached value for key, if any. A stale value is
// still returned; staleness only drives re-fetching in GetOrFetch.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return ent.value, true
}

// Set writes value under key, marks the entry fresh and notifies
// subscribers.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, fetchedAt: s.nowFunc()}
	s.notifyLocked(key)
	s.mu.Unlock()
}

// MarkFresh resets the staleness clock for key without changing its value.
// Used when the server confirms a mutation with an empty body. No-op if
// the key is absent.
func (s *Store) MarkFresh(key string) {
	s.mu.Lock()
	if ent, ok := s.entries[key]; ok {
		ent.fetchedAt = s.nowFunc()
		s.entries[key] = ent
	}
	s.mu.Unlock()
}

// Invalidate drops the entry for key and notifies subscribers, so the next
// GetOrFetch hits the network.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
		s.notifyLocked(key)
	}
	s.mu.Unlock()
}

// InvalidateAll drops every entry. Subscribers of all keys are notified.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	for key := range s.entries {
		delete(s.entries, key)
		s.notifyLocked(key)
	}
	s.mu.Unlock()
}

// IsStale reports whether key is missing or older than the staleness
// window.
func (s *Store) IsStale(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ent, ok := s.entries[key]
	if !ok {
		return true
	}
	return s.nowFunc().Sub(ent.fetchedAt) >= s.staleAfter
}

// Subscribe registers interest in changes to key. The returned channel
// receives a signal (capacity 1, coalescing) whenever the key is Set or
// Invalidated. The cancel func must be called when the consumer goes away;
// signals arriving after cancel are discarded.
func (s *Store) Subscribe(key string) (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++

	ch := make(chan struct{}, 1)
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]chan struct{})
	}
	s.subs[key][id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if subs, ok := s.subs[key]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(s.subs, key)
			}
		}
	}
	return ch, cancel
}

// notifyLocked signals every subscriber of key. Callers hold s.mu.
func (s *Store) notifyLocked(key string) {
	for _, ch := range s.subs[key] {
		select {
		case ch <- struct{}{}:
		default:
			// a pending signal already covers this change
		}
	}
}

// GetOrFetch returns the cached value for key if it is fresh; otherwise it
// runs fetch and caches the result. Concurrent callers for the same key
// share a single in-flight fetch. A caller whose ctx is cancelled while
// waiting gets ctx.Err() back; the shared fetch itself keeps running and
// still populates the cache for other consumers.
func (s *Store) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if !s.IsStale(key) {
		if value, ok := s.Get(key); ok {
			return value, nil
		}
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		value, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.Set(key, value)
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetch is the typed counterpart of GetOrFetch.
func Fetch[T any](ctx context.Context, s *Store, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	raw, err := s.GetOrFetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	value, ok := raw.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return value, nil
}

// Value is a typed read of the store. It returns the zero value and false
// when the key is absent or holds a different type.
func Value[T any](s *Store, key string) (T, bool) {
	var zero T
	raw, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return value, true
}
