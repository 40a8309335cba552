package pulse

import (
	"log"
	"time"
)

// Runtime owns one reactive graph: the tracking stack used for automatic
// dependency discovery, the scheduler queues, the wrap cache for reactive
// containers, and all configuration. Nothing in this package is stored in
// package-level mutable state, so independent runtimes (one per test, one
// per embedded graph) never interfere.
//
// A Runtime is single-owner state: it and every node created on it must be
// driven from one goroutine. Writes never block; they schedule work that
// runs at the next flush.
type Runtime struct {
	// frames is the tracking stack. The top frame is the consumer whose
	// dependencies are currently being discovered.
	frames []*frame

	// scope is the scope that newly created effects attach to.
	scope *Scope

	// Scheduler state.
	state      schedState
	batchDepth int
	preQueue   []*Effect
	postQueue  []*Effect

	// flushRequested coalesces deferred flush requests: many writes in one
	// synchronous turn schedule at most one deferred flush.
	flushRequested bool

	// flushErrors collects effect failures during a flush; they are
	// delivered to errSink after the flush completes.
	flushErrors []error

	commitHook    func()
	scheduleFlush func(flush func())
	flushBudget   int
	errSink       func(error)
	observers     []FlushObserver
	devMode       bool
	logf          func(format string, args ...any)

	// wrapCache preserves wrapper identity: wrapping the same backing
	// container twice returns the same reactive wrapper.
	wrapCache map[uintptr]any

	stats statsCounters
}

const defaultFlushBudget = 100

// Option configures a Runtime.
type Option func(*Runtime)

// WithCommitHook installs the host commit callback. It is invoked exactly
// once per flush iteration, between the pre-phase and post-phase effects,
// and is the designated point for applying pending host-tree updates.
func WithCommitHook(fn func()) Option {
	return func(rt *Runtime) {
		rt.commitHook = fn
	}
}

// WithScheduleFlush supplies the host's deferred-task primitive. When a
// write occurs outside a flush, the runtime calls schedule at most once
// per turn with a flush function the host must invoke later (its microtask
// equivalent). Without this option, scheduled work stays queued until
// FlushSync.
func WithScheduleFlush(schedule func(flush func())) Option {
	return func(rt *Runtime) {
		rt.scheduleFlush = schedule
	}
}

// WithFlushBudget caps the number of flush iterations a single flush may
// perform before it is aborted with ErrUnboundedFlush. The default is 100.
func WithFlushBudget(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.flushBudget = n
		}
	}
}

// WithErrorSink installs the receiver for effect failures and aborted
// flushes. The sink is called after the flush completes, never during it.
// The default sink logs through the runtime's logger.
func WithErrorSink(sink func(error)) Option {
	return func(rt *Runtime) {
		rt.errSink = sink
	}
}

// WithDevMode enables development-time diagnostics, in particular Inspect.
// When off, Inspect is compiled down to a no-op registration.
func WithDevMode(enabled bool) Option {
	return func(rt *Runtime) {
		rt.devMode = enabled
	}
}

// WithFlushObserver registers an observer notified at flush boundaries.
// Multiple observers may be registered; they are invoked in order.
func WithFlushObserver(ob FlushObserver) Option {
	return func(rt *Runtime) {
		if ob != nil {
			rt.observers = append(rt.observers, ob)
		}
	}
}

// WithLogger replaces the diagnostic logger used by dev-mode output and
// the default error sink.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(rt *Runtime) {
		if logf != nil {
			rt.logf = logf
		}
	}
}

// FlushObserver is notified at flush boundaries. Implemented by the
// observability adapters in pkg/observe.
type FlushObserver interface {
	FlushStart()
	FlushEnd(FlushInfo)
}

// FlushInfo summarizes one completed flush.
type FlushInfo struct {
	// Duration is the wall time of the whole flush.
	Duration time.Duration

	// Iterations is the number of pre/commit/post passes the flush ran.
	// Greater than one means effects wrote signals during the flush.
	Iterations int

	// PreEffects and PostEffects count effect runs per phase.
	PreEffects  int
	PostEffects int

	// Errors counts effect failures isolated during the flush.
	Errors int
}

// NewRuntime creates a reactive runtime with the given options.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		flushBudget: defaultFlushBudget,
		logf:        log.Printf,
		wrapCache:   make(map[uintptr]any),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.errSink == nil {
		rt.errSink = func(err error) {
			rt.logf("pulse: %v", err)
		}
	}
	return rt
}

// currentScope returns the scope effects created right now attach to.
func (rt *Runtime) currentScope() *Scope {
	return rt.scope
}

// setCurrentScope sets the attachment scope, returning the previous one so
// it can be restored.
func (rt *Runtime) setCurrentScope(s *Scope) *Scope {
	old := rt.scope
	rt.scope = s
	return old
}

// WithScope runs fn with s as the attachment scope for created effects.
func (rt *Runtime) WithScope(s *Scope, fn func()) {
	old := rt.setCurrentScope(s)
	defer rt.setCurrentScope(old)
	fn()
}
