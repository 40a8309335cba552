// Package pulse is a fine-grained reactive runtime: a dependency graph of
// mutable signals, lazily recomputed derived values, and scheduled effects.
//
// Dependencies are discovered automatically: reading a Signal or Derived
// while a consumer (an effect body or a derived computation) is executing
// subscribes that consumer to the value it read. Writes mark subscribers
// dirty and coalesce into a single flush per synchronous turn; a flush runs
// pre-phase effects, invokes the host commit hook once, then runs
// post-phase effects.
//
// All graph state is owned by a Runtime. Independent runtimes never share
// state, so tests and embedded graphs can run side by side:
//
//	rt := pulse.NewRuntime()
//	count := pulse.NewSignal(rt, 0)
//	double := pulse.NewDerived(rt, func() int { return count.Get() * 2 })
//
//	rt.CreateEffect(func() pulse.Cleanup {
//	    fmt.Println("double is", double.Get())
//	    return nil
//	})
//
//	count.Set(21)
//	rt.FlushSync() // prints "double is 42"
//
// The runtime is cooperative and single-threaded: a Runtime and every node
// created on it must be driven from one goroutine. Use the host's event
// loop (via WithScheduleFlush) or FlushSync to pump scheduled work.
package pulse
