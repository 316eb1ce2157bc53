// Package cache holds fetched query results keyed by a discrete filter value.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/podium/pkg/metrics"
)

// Entry is one cached result set with the metadata it was fetched under.
type Entry[V any] struct {
	Value V
	// Limit is the upstream limit the value was fetched with (0 when unbounded).
	Limit     int
	FetchedAt time.Time
	// Fresh is cleared by Invalidate; a stale entry is kept but must be refetched.
	Fresh bool
}

// Meta carries the fetch parameters stored alongside a value.
type Meta struct {
	Limit int
}

// Store is a concurrency-safe memo of fetched results.
// Entries live for the process lifetime and are only replaced by Put.
// Concurrent misses for the same key are not coalesced here.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]Entry[V]
	name    string
	now     func() time.Time
}

// New creates an empty store.
func New[K comparable, V any](opts ...Option) *Store[K, V] {
	cfg := options{name: "default", now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store[K, V]{
		entries: make(map[K]Entry[V]),
		name:    cfg.name,
		now:     cfg.now,
	}
}

// Name returns the label the store reports metrics under.
func (s *Store[K, V]) Name() string { return s.name }

// Get returns the entry for key. Only fresh entries count as hits.
func (s *Store[K, V]) Get(_ context.Context, key K) (Entry[V], bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && e.Fresh {
		metrics.RecordCacheLookup(s.name, metrics.CacheHit)
	} else {
		metrics.RecordCacheLookup(s.name, metrics.CacheMiss)
	}
	return e, ok
}

// Put stores value under key, replacing any prior entry.
func (s *Store[K, V]) Put(_ context.Context, key K, value V, meta Meta) Entry[V] {
	e := Entry[V]{Value: value, Limit: meta.Limit, FetchedAt: s.now(), Fresh: true}

	s.mu.Lock()
	s.entries[key] = e
	n := len(s.entries)
	s.mu.Unlock()

	metrics.UpdateCacheEntries(s.name, n)
	return e
}

// Invalidate marks the entry for key stale. It reports whether an entry existed.
func (s *Store[K, V]) Invalidate(_ context.Context, key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.Fresh = false
	s.entries[key] = e
	return true
}

// InvalidateAll marks every entry stale and returns how many there were.
func (s *Store[K, V]) InvalidateAll(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		e.Fresh = false
		s.entries[k] = e
	}
	return len(s.entries)
}

// Len returns the number of entries, fresh or not.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the cached keys ordered by their string form.
func (s *Store[K, V]) Keys(format func(K) string) []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, format(k))
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}
