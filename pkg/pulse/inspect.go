package pulse

// Source is a readable reactive node Inspect can observe. Signal and
// Derived implement it.
type Source interface {
	ID() uint64

	// readAny performs a tracked read of the current value.
	readAny() any
}

// Inspect observes a set of sources for development: the callback fires
// once with kind "init" and the current values, then with kind "update"
// after every flush in which any of them changed. A nil callback logs the
// values through the runtime's diagnostic logger instead.
//
// Inspect is active only on runtimes created WithDevMode; otherwise it is
// a no-op. The returned func stops the observation and is safe to call
// more than once.
func Inspect(rt *Runtime, onChange func(kind string, values ...any), sources ...Source) func() {
	if !rt.devMode || len(sources) == 0 {
		return func() {}
	}

	emit := onChange
	if emit == nil {
		emit = func(kind string, values ...any) {
			rt.logf("inspect %s: %v", kind, values)
		}
	}

	first := true
	eff := rt.CreateEffect(func() Cleanup {
		values := make([]any, len(sources))
		for i, src := range sources {
			values[i] = src.readAny()
		}
		kind := "update"
		if first {
			first = false
			kind = "init"
		}
		emit(kind, values...)
		return nil
	}, WithName("inspect"))

	return eff.Dispose
}
