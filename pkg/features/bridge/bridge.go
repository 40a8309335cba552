// Package bridge adapts external state containers into the reactive
// graph. A container only needs a Subscribe method; an Adapter mirrors
// its published values into a signal so reactive consumers can read and
// track them like any other state.
package bridge

import (
	"sync/atomic"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// Store is the minimal contract for an external state container: a
// subscription that calls fn with the current value immediately and with
// every subsequent value, and returns an unsubscribe func.
type Store[T any] interface {
	Subscribe(fn func(T)) (unsubscribe func())
}

// Settable is a Store that also accepts writes.
type Settable[T any] interface {
	Store[T]
	Set(T)
}

// Adapter mirrors a Store into a signal on a runtime. Values published by
// the store flow into the signal; Current is a tracked read of the
// mirror. Close stops the subscription.
type Adapter[T any] struct {
	rt    *pulse.Runtime
	store Store[T]

	mirror *pulse.Signal[T]

	unsubscribe func()
	closed      atomic.Bool
}

// From adapts store onto rt. The store's Subscribe is expected to deliver
// the current value synchronously; the adapter's signal is seeded from
// that first delivery (or stays at the zero value until the store
// publishes).
func From[T any](rt *pulse.Runtime, store Store[T]) *Adapter[T] {
	a := &Adapter[T]{
		rt:    rt,
		store: store,
	}

	var zero T
	a.mirror = pulse.NewSignal(rt, zero)

	a.unsubscribe = store.Subscribe(func(v T) {
		if a.closed.Load() {
			return
		}
		a.mirror.Set(v)
	})

	return a
}

// Current returns the store's latest published value, tracked: reactive
// consumers rerun when the store publishes a changed value.
func (a *Adapter[T]) Current() T {
	return a.mirror.Get()
}

// Peek returns the latest published value without tracking.
func (a *Adapter[T]) Peek() T {
	return a.mirror.Peek()
}

// SetCurrent writes v back to the store when it is Settable; the store's
// publication then updates the mirror. For a read-only store the mirror
// is written directly.
func (a *Adapter[T]) SetCurrent(v T) {
	if s, ok := a.store.(Settable[T]); ok {
		s.Set(v)
		return
	}
	a.mirror.Set(v)
}

// Signal exposes the underlying mirror signal, for composing the adapted
// value into deriveds and effects directly.
func (a *Adapter[T]) Signal() *pulse.Signal[T] {
	return a.mirror
}

// Close stops mirroring. Idempotent. The mirror keeps its last value.
func (a *Adapter[T]) Close() {
	if a.closed.Swap(true) {
		return
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}
