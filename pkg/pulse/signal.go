package pulse

import "sync"

// Signal is a reactive value container. Reading a Signal's value during a
// tracked context (a derived computation or an effect body) automatically
// subscribes the current consumer to receive notifications when the value
// changes. Every accepted write strictly increases the signal's version.
type Signal[T any] struct {
	base node

	// value is the current signal value.
	value T

	// mu protects the value.
	mu sync.RWMutex

	// equal is the equality function used to decide whether a write
	// changed the value. If nil, uses default equality checking.
	equal func(T, T) bool
}

// NewSignal creates a new signal on rt with the given initial value.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	rt.stats.signalsCreated.Add(1)
	return &Signal[T]{
		base: node{
			id: nextID(),
			rt: rt,
		},
		value: initial,
	}
}

// Get returns the current value and subscribes the current consumer.
// If called during a tracked context, the active consumer will be marked
// dirty when this signal's value changes.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	s.base.rt.recordRead(&s.base)

	return value
}

// Peek returns the current value without subscribing.
// Useful for reading a value without creating a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set updates the signal's value. If the new value differs under the
// configured equality, the version is bumped, all subscribers are marked
// dirty, and a flush is requested.
//
// Calling Set while a derived computation is executing panics with
// ErrStateMutatedDuringDerived: derived computations must not mutate the
// graph they are reading. Effects may write.
func (s *Signal[T]) Set(value T) {
	if s.base.rt.inDerivedCompute() {
		panic(ErrStateMutatedDuringDerived)
	}

	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
		s.base.bump()
	}
	s.mu.Unlock()

	if changed {
		s.base.markSubscribers()
		s.base.rt.requestFlush()
	}
}

// Update atomically reads and updates the signal's value.
// The function receives the current value and returns the new value.
func (s *Signal[T]) Update(fn func(T) T) {
	if s.base.rt.inDerivedCompute() {
		panic(ErrStateMutatedDuringDerived)
	}

	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
		s.base.bump()
	}
	s.mu.Unlock()

	if changed {
		s.base.markSubscribers()
		s.base.rt.requestFlush()
	}
}

// WithEquals returns the signal configured with a custom equality
// function, for types where the default reference semantics are wrong
// (or where a cheaper comparison exists).
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.base.id
}

// Version returns the signal's current version. Versions increase
// strictly on every accepted write.
func (s *Signal[T]) Version() uint64 {
	return s.base.version
}

// readAny implements Source for Inspect.
func (s *Signal[T]) readAny() any { return s.Get() }

// equals checks two values with the configured equality function.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}
