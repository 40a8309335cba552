package pulse

import (
	"errors"
	"fmt"
)

// ErrStateMutatedDuringDerived is the panic value raised when a Signal is
// written while a Derived computation is actively executing. Derived
// computations must be pure reads; allowing writes there would make
// recomputation order observable. Effects are permitted to write.
//
// The panic value satisfies errors.Is against this sentinel.
var ErrStateMutatedDuringDerived = errors.New("pulse: signal written during derived computation")

// ErrUnboundedFlush is reported to the error sink when writes performed
// during a flush keep re-enqueuing work past the runtime's flush budget.
// This converts an infinite update cycle (two effects writing each other's
// dependencies, for example) into a reported fatal condition instead of a
// hang. The flush aborts and pending work is dropped.
var ErrUnboundedFlush = errors.New("pulse: flush budget exceeded, aborting reactive update cycle")

// EffectError wraps a panic recovered from an effect body. The scheduler
// keeps flushing the remaining effects in the phase and delivers the
// failure to the runtime's error sink after the flush completes, so one
// broken effect cannot wedge the graph.
type EffectError struct {
	// EffectID identifies the failed effect.
	EffectID uint64

	// Name is the effect's configured name, if any (see WithName).
	Name string

	// Recovered is the value recovered from the panic.
	Recovered any
}

// Error implements the error interface.
func (e *EffectError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("pulse: effect %q (id %d) panicked: %v", e.Name, e.EffectID, e.Recovered)
	}
	return fmt.Sprintf("pulse: effect id %d panicked: %v", e.EffectID, e.Recovered)
}

// Unwrap returns the recovered value when it is an error, enabling
// errors.Is/As through the wrapper.
func (e *EffectError) Unwrap() error {
	if err, ok := e.Recovered.(error); ok {
		return err
	}
	return nil
}
