package pulse

// Derived is a memoized computation that automatically tracks its
// dependencies. Invalidation is a lazy transitive mark: when an upstream
// value changes, the derived (and its own dependents, recursively) are
// only flagged possibly-stale, never recomputed eagerly.
//
// On the next read, the recorded dependency versions are checked first; if
// none moved, the mark is cleared without recomputing. If a recompute
// produces a value equal to the cached one (under the configured
// equality), the derived keeps its version, so its own subscribers observe
// no change; suppression stops propagation at the first unchanged value.
type Derived[T any] struct {
	base node

	// compute is the function that computes the derived value.
	compute func() T

	// value is the cached computed value.
	value T

	// valid is false until the first computation.
	valid bool

	// stale marks the cache possibly out of date.
	stale bool

	// marking guards against reentrant mark propagation on a dependency
	// cycle.
	marking bool

	// deps are the sources read during the last computation, with the
	// versions observed then.
	deps []dep

	// equal is the equality function for change suppression.
	equal func(T, T) bool

	// computing guards against reentrant recomputation on a
	// self-referential dependency cycle.
	computing bool
}

// NewDerived creates a derived value on rt. The computation does not run
// immediately; it runs lazily on first Get.
func NewDerived[T any](rt *Runtime, compute func() T) *Derived[T] {
	rt.stats.derivedsCreated.Add(1)
	d := &Derived[T]{
		base: node{
			id: nextID(),
			rt: rt,
		},
		compute: compute,
	}
	d.base.refresh = d.ensureFresh
	return d
}

// Get returns the derived value, recomputing if necessary, and subscribes
// the current consumer to this derived. The cache settles before the read
// is recorded so the consumer sees the post-recompute version.
func (d *Derived[T]) Get() T {
	d.ensureFresh()
	d.base.rt.recordRead(&d.base)
	return d.value
}

// Peek returns the derived value without subscribing. Still recomputes if
// the cache is out of date.
func (d *Derived[T]) Peek() T {
	d.ensureFresh()
	return d.value
}

// MarkDirty flags the cached value possibly stale and propagates the mark
// to subscribers. Implements Consumer. Propagation happens on every
// notification, not only the stale transition: a derived can be left stale
// after an aborted or failed flush, and a later write still has to reach
// the effects downstream. The marking guard terminates mark cycles.
func (d *Derived[T]) MarkDirty() {
	if d.marking {
		return
	}
	d.stale = true
	d.marking = true
	d.base.markSubscribers()
	d.marking = false
}

// ID returns the unique identifier for this derived.
// Implements Consumer.
func (d *Derived[T]) ID() uint64 {
	return d.base.id
}

// WithEquals configures a custom equality function for change
// suppression.
func (d *Derived[T]) WithEquals(fn func(T, T) bool) *Derived[T] {
	d.equal = fn
	return d
}

// Version returns the derived's current version. The version only moves
// when a recompute produced a changed value.
func (d *Derived[T]) Version() uint64 {
	return d.base.version
}

// readAny implements Source for Inspect.
func (d *Derived[T]) readAny() any { return d.Get() }

// ensureFresh settles the cache: a possibly-stale derived whose recorded
// dependency versions all still match just clears the mark.
func (d *Derived[T]) ensureFresh() {
	if d.valid && !d.stale {
		return
	}
	if d.valid && !depsChanged(d.deps) {
		d.stale = false
		return
	}
	d.recompute()
}

// recompute runs the computation under a derived tracking frame, replacing
// the dependency set with the sources actually read this time.
func (d *Derived[T]) recompute() {
	if d.computing {
		// Circular dependency; return the current cache rather than
		// recursing.
		return
	}
	d.computing = true
	defer func() { d.computing = false }()

	for _, old := range d.deps {
		old.src.unsubscribe(d)
	}
	d.deps = nil

	// The frame is popped in a defer so a panicking computation (which
	// propagates to the reader) still unwinds the tracking stack.
	var newValue T
	func() {
		fr := d.base.rt.pushFrame(d, frameDerived)
		defer func() { d.deps = d.base.rt.popFrame(fr) }()
		newValue = d.compute()
	}()

	changed := !d.valid || !d.equals(d.value, newValue)
	d.value = newValue
	d.valid = true
	d.stale = false

	if changed {
		d.base.bump()
	}
}

// equals checks two values with the configured equality function.
func (d *Derived[T]) equals(a, b T) bool {
	if d.equal != nil {
		return d.equal(a, b)
	}
	return defaultEquals(a, b)
}
