package pulse

// frameKind distinguishes the two consumer kinds on the tracking stack.
// Signal writes are rejected while a derived frame is on top; effect
// frames may write.
type frameKind uint8

const (
	frameEffect frameKind = iota
	frameDerived
)

// frame is one entry of the tracking stack: the consumer currently
// evaluating, plus the dependency sources it has read so far.
type frame struct {
	consumer Consumer
	kind     frameKind
	sources  []dep
}

// addSource records a read, deduplicating by node identity. The version is
// captured at read time: a source the consumer itself moves later in the
// same run counts as changed on the next settle check.
func (f *frame) addSource(n *node) {
	for _, s := range f.sources {
		if s.src == n {
			return
		}
	}
	f.sources = append(f.sources, dep{src: n, version: n.version})
}

// pushFrame brackets the start of a consumer evaluation.
func (rt *Runtime) pushFrame(c Consumer, kind frameKind) *frame {
	f := &frame{consumer: c, kind: kind}
	rt.frames = append(rt.frames, f)
	return f
}

// popFrame ends a consumer evaluation and returns the dependency set
// captured during it, with the version of each source as observed when it
// was read. Callers replace their previous dependency set wholesale with
// the returned one (stale subscriptions were removed before the run).
func (rt *Runtime) popFrame(f *frame) []dep {
	if len(rt.frames) == 0 || rt.frames[len(rt.frames)-1] != f {
		panic("pulse: tracking stack corrupted (unbalanced pop)")
	}
	rt.frames = rt.frames[:len(rt.frames)-1]
	return f.sources
}

// topFrame returns the active frame, or nil when no tracking is active.
func (rt *Runtime) topFrame() *frame {
	if len(rt.frames) == 0 {
		return nil
	}
	return rt.frames[len(rt.frames)-1]
}

// recordRead wires a dependency edge from the active consumer to n.
// Reads outside any frame are untracked and register nothing.
func (rt *Runtime) recordRead(n *node) {
	f := rt.topFrame()
	if f == nil {
		return
	}
	n.subscribe(f.consumer)
	f.addSource(n)
}

// inDerivedCompute reports whether the innermost active frame is a derived
// computation.
func (rt *Runtime) inDerivedCompute() bool {
	f := rt.topFrame()
	return f != nil && f.kind == frameDerived
}

// IsTracking reports whether a tracking frame is currently active, i.e.
// whether reads performed right now would register dependencies.
func (rt *Runtime) IsTracking() bool {
	return rt.topFrame() != nil
}

// Untracked runs fn with the tracking stack temporarily cleared, then
// restores it. Reads inside fn register no dependencies.
//
// For a single signal read, Peek is more direct.
func (rt *Runtime) Untracked(fn func()) {
	saved := rt.frames
	rt.frames = nil
	defer func() { rt.frames = saved }()
	fn()
}

// Untrack runs fn with the tracking stack temporarily cleared and returns
// its result. Reads inside fn register no dependencies.
func Untrack[T any](rt *Runtime, fn func() T) T {
	saved := rt.frames
	rt.frames = nil
	defer func() { rt.frames = saved }()
	return fn()
}

// UntrackedGet reads a signal's value without creating a dependency.
// This is a convenience equivalent to s.Peek().
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}
