package pulse

import "sync/atomic"

// Phase selects when an effect runs within a flush. Pre-phase effects run
// before the host commit hook, post-phase effects after it.
type Phase uint8

const (
	// PhasePre runs before the commit point (e.g. to prepare host-tree
	// updates the commit will apply).
	PhasePre Phase = iota

	// PhasePost runs after the commit point (e.g. to observe the
	// committed host tree). This is the default.
	PhasePost
)

// Effect is a reactive side effect that reruns when its dependencies
// change. Effects are push-scheduled, never pulled: creating one schedules
// its first run for the next flush, and a dependency change schedules a
// rerun. A scheduled effect whose recorded dependency versions turn out
// unchanged (after transitive derived marks settle) skips its body.
//
// The body may return a Cleanup, called before the next rerun and on
// disposal.
type Effect struct {
	id uint64
	rt *Runtime

	// fn is the effect body.
	fn func() Cleanup

	// cleanup is the cleanup from the last run.
	cleanup Cleanup

	// deps are the sources read during the last run, with observed
	// versions. Subscription bookkeeping always uses exactly this set:
	// every run discards the previous subscriptions before tracking.
	deps []dep

	// hasRun is false until the body executed once.
	hasRun bool

	phase Phase
	name  string

	// scope owns this effect; nil for a caller-managed root effect.
	scope *Scope

	// pending indicates the effect is scheduled for the current/next
	// flush. CAS-guarded so an effect is enqueued at most once.
	pending atomic.Bool

	// disposed indicates the effect has been disposed.
	disposed atomic.Bool
}

// EffectOption configures an Effect at creation.
type EffectOption func(*Effect)

// WithPhase sets the effect's flush phase. The default is PhasePost.
func WithPhase(p Phase) EffectOption {
	return func(e *Effect) {
		e.phase = p
	}
}

// WithName names the effect for error reports and diagnostics.
func WithName(name string) EffectOption {
	return func(e *Effect) {
		e.name = name
	}
}

// CreateEffect creates an effect and schedules its first run for the next
// flush (the body never runs synchronously at creation). The effect
// attaches to the current scope; an effect created while another effect is
// running becomes a child of the creator's scope. Created outside any
// scope, the effect is caller-managed: the caller must call Dispose.
func (rt *Runtime) CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	e := &Effect{
		id:    nextID(),
		rt:    rt,
		fn:    fn,
		phase: PhasePost,
		scope: rt.currentScope(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.scope != nil {
		if !e.scope.register(e) {
			// Scope already disposed: the effect is born dead.
			e.disposed.Store(true)
			return e
		}
	}
	rt.stats.liveEffects.Add(1)

	e.pending.Store(true)
	rt.enqueueEffect(e)
	rt.requestFlush()

	return e
}

// MarkDirty schedules the effect for the next flush of its phase.
// Implements Consumer.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	if e.pending.CompareAndSwap(false, true) {
		e.rt.enqueueEffect(e)
		e.rt.requestFlush()
	}
}

// ID returns the unique identifier for this effect.
// Implements Consumer.
func (e *Effect) ID() uint64 {
	return e.id
}

// run executes the effect body. Called only by the scheduler.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	e.pending.Store(false)

	// A transitively marked effect whose dependencies settled to the same
	// versions has nothing to observe; keep its current subscriptions and
	// cleanup. Settling can recompute upstream deriveds, so a failure here
	// is isolated exactly like a body failure.
	if e.hasRun {
		changed, failed := e.settleDeps()
		if failed {
			return
		}
		if !changed {
			e.rt.stats.effectSkips.Add(1)
			return
		}
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	for _, old := range e.deps {
		old.src.unsubscribe(e)
	}
	e.deps = nil

	e.rt.stats.effectRuns.Add(1)
	e.hasRun = true

	// Effects created by the body attach to this effect's scope.
	prevScope := e.rt.setCurrentScope(e.scope)
	fr := e.rt.pushFrame(e, frameEffect)

	func() {
		defer func() {
			if r := recover(); r != nil {
				e.rt.stats.effectFailures.Add(1)
				e.rt.flushErrors = append(e.rt.flushErrors, &EffectError{
					EffectID:  e.id,
					Name:      e.name,
					Recovered: r,
				})
			}
		}()
		e.cleanup = e.fn()
	}()

	e.deps = e.rt.popFrame(fr)
	e.rt.setCurrentScope(prevScope)
}

// settleDeps compares recorded dependency versions, refreshing deriveds
// along the way. A panic escaping a derived recompute is converted into an
// EffectError so it never unwinds through the flush loop.
func (e *Effect) settleDeps() (changed, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			e.rt.stats.effectFailures.Add(1)
			e.rt.flushErrors = append(e.rt.flushErrors, &EffectError{
				EffectID:  e.id,
				Name:      e.name,
				Recovered: r,
			})
			failed = true
		}
	}()
	return depsChanged(e.deps), false
}

// Dispose runs the effect's cleanup (if any) and removes it from all
// dependency subscriber sets and from its scope. Idempotent: disposing an
// already-disposed effect is a no-op, never an error.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	e.rt.stats.liveEffects.Add(-1)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	for _, d := range e.deps {
		d.src.unsubscribe(e)
	}
	e.deps = nil

	if e.scope != nil {
		e.scope.remove(e)
	}
}

// IsDisposed reports whether the effect has been disposed.
func (e *Effect) IsDisposed() bool {
	return e.disposed.Load()
}

// OnMount schedules fn to run once on the next flush, with no reactive
// dependencies tracked beyond what fn reads. Equivalent to CreateEffect
// with a body that never changes its dependency versions.
func (rt *Runtime) OnMount(fn func()) *Effect {
	return rt.CreateEffect(func() Cleanup {
		fn()
		return nil
	})
}

// OnUpdate creates an effect that skips its callback on the first run.
// deps establishes the tracked reads; callback runs only on subsequent
// changes.
func (rt *Runtime) OnUpdate(deps func(), callback func()) *Effect {
	first := true
	return rt.CreateEffect(func() Cleanup {
		deps()
		if first {
			first = false
			return nil
		}
		callback()
		return nil
	})
}
