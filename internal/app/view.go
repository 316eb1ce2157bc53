package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/podium/pkg/metrics"
)

// Snapshot is the visible state of a View.
type Snapshot[K comparable, T any] struct {
	Status    Status
	Key       K
	Data      T
	Err       error
	UpdatedAt time.Time
}

// View models one widget: idle -> loading -> (ready | error).
// Every Select re-enters loading and drops the visible result. A load result
// is committed only if no newer Select was issued meanwhile.
type View[K comparable, T any] struct {
	name  string
	load  func(context.Context, K) (T, error)
	empty func(T) bool
	now   func() time.Time

	mu    sync.Mutex
	gen   uint64
	state Snapshot[K, T]
}

// NewView creates an idle view. empty may be nil.
func NewView[K comparable, T any](name string, load func(context.Context, K) (T, error), empty func(T) bool) *View[K, T] {
	return &View[K, T]{
		name:  name,
		load:  load,
		empty: empty,
		now:   time.Now,
		state: Snapshot[K, T]{Status: StatusIdle},
	}
}

// Name returns the view name.
func (v *View[K, T]) Name() string { return v.name }

// Select switches the view to key and loads it. It returns the committed
// snapshot, or ErrStale when a newer selection superseded this one; the
// stale result is discarded.
func (v *View[K, T]) Select(ctx context.Context, key K) (Snapshot[K, T], error) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.state = Snapshot[K, T]{Status: StatusLoading, Key: key, UpdatedAt: v.now()}
	v.mu.Unlock()

	data, err := v.load(ctx, key)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		metrics.RecordStaleDiscard(v.name)
		return v.state, ErrStale
	}

	next := Snapshot[K, T]{Key: key, UpdatedAt: v.now()}
	switch {
	case err != nil:
		next.Status = StatusError
		next.Err = err
	case v.empty != nil && v.empty(data):
		next.Status = StatusEmpty
		next.Data = data
	default:
		next.Status = StatusReady
		next.Data = data
	}
	v.state = next
	return next, err
}

// Current returns the visible state.
func (v *View[K, T]) Current() Snapshot[K, T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
