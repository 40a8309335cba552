package pulse

import "reflect"

// ReactiveMap gives per-key reactivity over a plain map without eagerly
// instrumenting every field: a key's Signal materializes on first access.
// Structural changes (key add/remove) bump a separate structure signal so
// consumers of Len, Has or Keys are invalidated without coupling them to
// individual keys.
//
// All access goes through Get/Set/Delete; mutating the original backing
// map directly produces no notifications.
type ReactiveMap[K comparable, V any] struct {
	rt *Runtime

	// target is the current plain backing map.
	target map[K]V

	// keySignals holds lazily created per-key signals.
	keySignals map[K]*Signal[V]

	// structure changes whenever the key set changes.
	structure *Signal[uint64]
}

// NewReactiveMap creates a reactive wrapper over target. A nil target
// starts empty. The wrapper takes ownership of the map; callers must not
// mutate it directly afterwards.
func NewReactiveMap[K comparable, V any](rt *Runtime, target map[K]V) *ReactiveMap[K, V] {
	if target == nil {
		target = make(map[K]V)
	}
	return &ReactiveMap[K, V]{
		rt:         rt,
		target:     target,
		keySignals: make(map[K]*Signal[V]),
		structure:  NewSignal(rt, uint64(0)),
	}
}

// WrapMap returns the reactive wrapper for target, creating it on first
// use. Wrapping the same backing map twice returns the same wrapper, so
// wrapper identity follows container identity. For nested containers,
// pass the value read from Get back through WrapMap or WrapList; the
// cache guarantees every call site sees the same nested wrapper.
func WrapMap[K comparable, V any](rt *Runtime, target map[K]V) *ReactiveMap[K, V] {
	if target == nil {
		return NewReactiveMap(rt, target)
	}
	key := reflect.ValueOf(target).Pointer()
	if cached, ok := rt.wrapCache[key]; ok {
		if m, ok := cached.(*ReactiveMap[K, V]); ok {
			return m
		}
	}
	m := NewReactiveMap(rt, target)
	rt.wrapCache[key] = m
	return m
}

// keySignal lazily materializes the signal for key, seeded with the
// current field value.
func (m *ReactiveMap[K, V]) keySignal(key K) *Signal[V] {
	if sig, ok := m.keySignals[key]; ok {
		return sig
	}
	sig := NewSignal(m.rt, m.target[key])
	m.keySignals[key] = sig
	return sig
}

// Get returns the value for key, registering a dependency on that key
// only. Reading one key does not couple the reader to other keys or to
// structural changes.
func (m *ReactiveMap[K, V]) Get(key K) V {
	return m.keySignal(key).Get()
}

// Set writes the value for key through its per-key signal. Adding a new
// key additionally bumps the structure signal.
func (m *ReactiveMap[K, V]) Set(key K, value V) {
	_, existed := m.target[key]
	m.target[key] = value
	m.keySignal(key).Set(value)
	if !existed {
		m.structure.Update(func(v uint64) uint64 { return v + 1 })
	}
}

// Delete removes key. The per-key signal (if materialized) resets to the
// zero value and the structure signal is bumped. Deleting an absent key
// is a no-op.
func (m *ReactiveMap[K, V]) Delete(key K) {
	if _, ok := m.target[key]; !ok {
		return
	}
	delete(m.target, key)
	if sig, ok := m.keySignals[key]; ok {
		var zero V
		sig.Set(zero)
	}
	m.structure.Update(func(v uint64) uint64 { return v + 1 })
}

// Has reports whether key is present. Registers a structural dependency.
func (m *ReactiveMap[K, V]) Has(key K) bool {
	m.structure.Get()
	_, ok := m.target[key]
	return ok
}

// Len returns the number of keys. Registers a structural dependency.
func (m *ReactiveMap[K, V]) Len() int {
	m.structure.Get()
	return len(m.target)
}

// Keys returns the current key set. Registers a structural dependency.
func (m *ReactiveMap[K, V]) Keys() []K {
	m.structure.Get()
	keys := make([]K, 0, len(m.target))
	for k := range m.target {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a plain deep clone of the map's current state: a
// point-in-time copy with no instrumentation, unaffected by later
// mutation of the wrapper. Registers no dependencies.
func (m *ReactiveMap[K, V]) Snapshot() map[K]V {
	return Snapshot(m.target).(map[K]V)
}

// ReactiveList gives per-index reactivity over a slice plus a dedicated
// length signal: a consumer reading only index 0 is not invalidated by an
// append, while a consumer reading Len is.
//
// All access goes through the accessor methods; mutating the original
// backing slice directly produces no notifications.
type ReactiveList[T any] struct {
	rt *Runtime

	// items is the current plain backing slice.
	items []T

	// indexSignals holds lazily created per-index signals.
	indexSignals map[int]*Signal[T]

	// length changes on every length-affecting mutation.
	length *Signal[int]
}

// NewReactiveList creates a reactive wrapper over target. The wrapper
// takes ownership of the slice; callers must not mutate it directly
// afterwards.
func NewReactiveList[T any](rt *Runtime, target []T) *ReactiveList[T] {
	return &ReactiveList[T]{
		rt:           rt,
		items:        target,
		indexSignals: make(map[int]*Signal[T]),
		length:       NewSignal(rt, len(target)),
	}
}

// WrapList returns the reactive wrapper for target, creating it on first
// use. Wrapping a slice with the same backing array twice returns the
// same wrapper.
func WrapList[T any](rt *Runtime, target []T) *ReactiveList[T] {
	if len(target) == 0 {
		return NewReactiveList(rt, target)
	}
	key := reflect.ValueOf(target).Pointer()
	if cached, ok := rt.wrapCache[key]; ok {
		if l, ok := cached.(*ReactiveList[T]); ok {
			return l
		}
	}
	l := NewReactiveList(rt, target)
	rt.wrapCache[key] = l
	return l
}

// indexSignal lazily materializes the signal for index i, seeded with the
// current element (or the zero value out of range).
func (l *ReactiveList[T]) indexSignal(i int) *Signal[T] {
	if sig, ok := l.indexSignals[i]; ok {
		return sig
	}
	var v T
	if i >= 0 && i < len(l.items) {
		v = l.items[i]
	}
	sig := NewSignal(l.rt, v)
	l.indexSignals[i] = sig
	return sig
}

// Get returns the element at index i, registering a dependency on that
// index only. Out of range returns the zero value (the dependency still
// registers, so a later write to i invalidates the reader).
func (l *ReactiveList[T]) Get(i int) T {
	return l.indexSignal(i).Get()
}

// Set writes the element at index i. Does nothing if i is out of bounds.
func (l *ReactiveList[T]) Set(i int, value T) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items[i] = value
	l.indexSignal(i).Set(value)
}

// Append adds an element at the end. Consumers of Len (and of the new
// index, if previously read) are invalidated; consumers of other indexes
// are not.
func (l *ReactiveList[T]) Append(value T) {
	l.items = append(l.items, value)
	idx := len(l.items) - 1
	if sig, ok := l.indexSignals[idx]; ok {
		sig.Set(value)
	}
	l.length.Set(len(l.items))
}

// RemoveAt removes the element at index i, shifting the tail down. Every
// shifted index is written through its signal (if materialized). Does
// nothing if i is out of bounds.
func (l *ReactiveList[T]) RemoveAt(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items = append(l.items[:i], l.items[i+1:]...)

	for j := i; j < len(l.items); j++ {
		if sig, ok := l.indexSignals[j]; ok {
			sig.Set(l.items[j])
		}
	}
	if sig, ok := l.indexSignals[len(l.items)]; ok {
		var zero T
		sig.Set(zero)
	}
	l.length.Set(len(l.items))
}

// Len returns the current length, registering a dependency on it.
func (l *ReactiveList[T]) Len() int {
	return l.length.Get()
}

// Snapshot returns a plain deep clone of the list's current state: a
// point-in-time copy, not a live view. Registers no dependencies.
func (l *ReactiveList[T]) Snapshot() []T {
	if l.items == nil {
		return nil
	}
	return Snapshot(l.items).([]T)
}
