package pulse

import "reflect"

// Linked is local state initialized from a reactive source and re-seeded
// whenever the source changes, until the first local write breaks the
// link. An incoming source change always re-establishes the link: by
// default it overwrites the local value with a deep clone of the incoming
// one; with WithOnIncoming the callback decides what to apply instead.
//
// This covers the common form/draft shape: edits win over upstream until
// upstream actually moves again.
type Linked[T any] struct {
	rt *Runtime

	// source is the tracked upstream read.
	source func() T

	// local holds the current value; all Get/Set traffic goes through it.
	local *Signal[T]

	// onIncoming, when set, replaces the default write-through on source
	// changes.
	onIncoming func(T)

	// linked is true while the local value still follows the source.
	linked bool

	// writingThrough distinguishes incoming writes from external ones so
	// an incoming write never unlinks.
	writingThrough bool

	watcher *Effect
}

// LinkedOption configures a Linked at creation.
type LinkedOption[T any] func(*Linked[T])

// WithOnIncoming installs a callback invoked with the incoming value when
// the source changes, instead of the default overwrite. Writes the
// callback performs via Set count as incoming and keep the link.
func WithOnIncoming[T any](fn func(T)) LinkedOption[T] {
	return func(l *Linked[T]) {
		l.onIncoming = fn
	}
}

// NewLinked creates linked state on rt following source. The local value
// starts as a deep clone of the source's current value. The watcher
// effect attaches to the current scope; call Dispose for caller-managed
// lifetimes.
func NewLinked[T any](rt *Runtime, source func() T, opts ...LinkedOption[T]) *Linked[T] {
	l := &Linked[T]{
		rt:     rt,
		source: source,
		linked: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	seed := Untrack(rt, source)
	l.local = NewSignal(rt, cloneOf(seed))

	first := true
	l.watcher = rt.CreateEffect(func() Cleanup {
		incoming := l.source()
		if first {
			// The creation-time clone already seeded the local value, but
			// the source may have moved before this first run; only a value
			// still matching the seed can be skipped.
			first = false
			same := reflect.DeepEqual(incoming, seed)
			var zero T
			seed = zero
			if same {
				return nil
			}
		}
		l.incoming(incoming)
		return nil
	}, WithName("linked"))

	return l
}

// incoming applies an upstream change: re-link, then either write the
// value through or hand it to the callback.
func (l *Linked[T]) incoming(v T) {
	l.linked = true
	l.writingThrough = true
	defer func() { l.writingThrough = false }()

	if l.onIncoming != nil {
		l.onIncoming(v)
		return
	}
	l.local.Set(cloneOf(v))
}

// Get returns the current local value, tracked.
func (l *Linked[T]) Get() T {
	return l.local.Get()
}

// Peek returns the current local value without tracking.
func (l *Linked[T]) Peek() T {
	return l.local.Peek()
}

// Set writes the local value. An external write breaks the link until the
// next incoming source change.
func (l *Linked[T]) Set(v T) {
	if !l.writingThrough {
		l.linked = false
	}
	l.local.Set(v)
}

// IsLinked reports whether the local value still follows the source.
func (l *Linked[T]) IsLinked() bool {
	return l.linked
}

// Dispose stops watching the source. The local value remains readable.
func (l *Linked[T]) Dispose() {
	l.watcher.Dispose()
}

// cloneOf deep clones v, preserving nil.
func cloneOf[T any](v T) T {
	if any(v) == nil {
		return v
	}
	return Snapshot(any(v)).(T)
}
