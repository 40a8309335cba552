package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// fakeStore is a minimal Settable implementation: it publishes the
// current value on subscribe and every value on Set.
type fakeStore struct {
	value       int
	subscribers map[int]func(int)
	nextID      int
}

func newFakeStore(initial int) *fakeStore {
	return &fakeStore{
		value:       initial,
		subscribers: make(map[int]func(int)),
	}
}

func (s *fakeStore) Subscribe(fn func(int)) func() {
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	fn(s.value)
	return func() { delete(s.subscribers, id) }
}

func (s *fakeStore) Set(v int) {
	s.value = v
	for _, fn := range s.subscribers {
		fn(v)
	}
}

func TestFromSeedsFromStore(t *testing.T) {
	rt := pulse.NewRuntime()
	store := newFakeStore(42)

	a := From[int](rt, store)
	defer a.Close()

	assert.Equal(t, 42, a.Current())
}

func TestAdapterTracksStorePublications(t *testing.T) {
	rt := pulse.NewRuntime()
	store := newFakeStore(1)

	a := From[int](rt, store)
	defer a.Close()

	var seen []int
	rt.CreateEffect(func() pulse.Cleanup {
		seen = append(seen, a.Current())
		return nil
	})
	rt.FlushSync()

	store.Set(2)
	rt.FlushSync()

	require.Equal(t, []int{1, 2}, seen)
}

func TestSetCurrentWritesThroughSettable(t *testing.T) {
	rt := pulse.NewRuntime()
	store := newFakeStore(1)

	a := From[int](rt, store)
	defer a.Close()

	a.SetCurrent(9)

	assert.Equal(t, 9, store.value, "write must reach the store")
	assert.Equal(t, 9, a.Current(), "store publication must update the mirror")
}

func TestSetCurrentOnReadOnlyStore(t *testing.T) {
	rt := pulse.NewRuntime()

	// Read-only store: Subscribe only, no Set.
	unsubscribed := false
	store := storeFunc(func(fn func(string)) func() {
		fn("from-store")
		return func() { unsubscribed = true }
	})

	a := From[string](rt, store)
	assert.Equal(t, "from-store", a.Current())

	a.SetCurrent("local")
	assert.Equal(t, "local", a.Current())

	a.Close()
	assert.True(t, unsubscribed)
	a.Close() // idempotent
}

func TestCloseStopsMirroring(t *testing.T) {
	rt := pulse.NewRuntime()
	store := newFakeStore(1)

	a := From[int](rt, store)
	a.Close()

	store.Set(2)
	assert.Equal(t, 1, a.Peek(), "closed adapter must keep its last value")
}

func TestSignalComposesWithDerived(t *testing.T) {
	rt := pulse.NewRuntime()
	store := newFakeStore(3)

	a := From[int](rt, store)
	defer a.Close()

	d := pulse.NewDerived(rt, func() int { return a.Signal().Get() * 2 })
	assert.Equal(t, 6, d.Get())

	store.Set(5)
	assert.Equal(t, 10, d.Get())
}

// storeFunc adapts a function to the Store interface.
type storeFunc func(fn func(string)) func()

func (f storeFunc) Subscribe(fn func(string)) func() { return f(fn) }
