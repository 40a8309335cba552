package pulse

import "sync/atomic"

// statsCounters accumulates runtime counters. Atomics are used because
// observability scrapers (pkg/observe) read them from other goroutines
// while the graph runs.
type statsCounters struct {
	flushes         atomic.Uint64
	flushIterations atomic.Uint64
	effectRuns      atomic.Uint64
	effectSkips     atomic.Uint64
	effectFailures  atomic.Uint64
	signalsCreated  atomic.Uint64
	derivedsCreated atomic.Uint64
	liveEffects     atomic.Int64
	liveScopes      atomic.Int64
}

func (s *statsCounters) recordFlush(info FlushInfo) {
	s.flushes.Add(1)
	s.flushIterations.Add(uint64(info.Iterations))
}

// RuntimeStats is a point-in-time snapshot of runtime counters.
type RuntimeStats struct {
	// Flushes is the number of completed flushes.
	Flushes uint64

	// FlushIterations is the total number of pre/commit/post passes across
	// all flushes. A ratio well above Flushes indicates effects writing
	// signals during flushes.
	FlushIterations uint64

	// EffectRuns counts effect bodies executed.
	EffectRuns uint64

	// EffectSkips counts scheduled effects whose dependency versions were
	// unchanged, so the body was not run.
	EffectSkips uint64

	// EffectFailures counts panics isolated from effect bodies.
	EffectFailures uint64

	// SignalsCreated and DerivedsCreated count node constructions.
	SignalsCreated  uint64
	DerivedsCreated uint64

	// LiveEffects and LiveScopes count currently undisposed nodes.
	LiveEffects int64
	LiveScopes  int64
}

// Stats returns a snapshot of the runtime's counters. Safe to call from
// any goroutine.
func (rt *Runtime) Stats() RuntimeStats {
	return RuntimeStats{
		Flushes:         rt.stats.flushes.Load(),
		FlushIterations: rt.stats.flushIterations.Load(),
		EffectRuns:      rt.stats.effectRuns.Load(),
		EffectSkips:     rt.stats.effectSkips.Load(),
		EffectFailures:  rt.stats.effectFailures.Load(),
		SignalsCreated:  rt.stats.signalsCreated.Load(),
		DerivedsCreated: rt.stats.derivedsCreated.Load(),
		LiveEffects:     rt.stats.liveEffects.Load(),
		LiveScopes:      rt.stats.liveScopes.Load(),
	}
}
