package pulse

import "time"

// schedState is the scheduler's state machine:
//
//	Idle -> BatchOpen -> FlushPending -> Flushing -> Idle
//
// Any write while Idle moves to FlushPending (or BatchOpen inside a batch)
// and requests one coalesced deferred flush. FlushSync forces an immediate
// transition to Flushing. Writes while Flushing enqueue work for a
// subsequent flush iteration instead of recursing.
type schedState uint8

const (
	schedIdle schedState = iota
	schedBatchOpen
	schedFlushPending
	schedFlushing
)

// enqueueEffect appends an effect to its phase queue. Callers hold the
// effect's pending flag, so an effect appears at most once per queue.
func (rt *Runtime) enqueueEffect(e *Effect) {
	if e.phase == PhasePre {
		rt.preQueue = append(rt.preQueue, e)
	} else {
		rt.postQueue = append(rt.postQueue, e)
	}
}

// requestFlush notes that scheduled work exists. Outside a batch this arms
// the deferred flush (at most once per turn); inside a batch the request
// is held until the outermost batch closes; during a flush the loop picks
// the work up on its next iteration.
func (rt *Runtime) requestFlush() {
	if rt.state == schedFlushing {
		return
	}
	if rt.batchDepth > 0 {
		rt.state = schedBatchOpen
		return
	}
	rt.state = schedFlushPending
	rt.armDeferredFlush()
}

func (rt *Runtime) armDeferredFlush() {
	if rt.scheduleFlush == nil || rt.flushRequested {
		return
	}
	rt.flushRequested = true
	rt.scheduleFlush(func() { rt.FlushSync() })
}

// Batch groups multiple signal writes into a single scheduling turn: the
// deferred flush cannot fire until the outermost batch completes, so all
// writes inside fn are observed by effects as one atomic state transition.
// Batches nest.
//
// Marking is idempotent, so a batch does not change which effects run,
// only when the flush may start.
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 && rt.state == schedBatchOpen {
			rt.state = schedFlushPending
			rt.armDeferredFlush()
		}
	}()
	fn()
}

// FlushSync optionally executes the given functions as a batch of writes,
// then forces an immediate, complete flush before returning. Calling
// FlushSync while a flush is already running only performs the writes; the
// running flush picks up the new work.
func (rt *Runtime) FlushSync(fns ...func()) {
	for _, fn := range fns {
		rt.Batch(fn)
	}
	if rt.state == schedFlushing {
		return
	}
	if rt.state != schedFlushPending && !rt.hasPending() {
		return
	}
	rt.flush()
}

func (rt *Runtime) hasPending() bool {
	return len(rt.preQueue) > 0 || len(rt.postQueue) > 0
}

// flush runs the scheduled work to completion. One iteration is: dirty
// pre-phase effects in schedule order, the commit hook exactly once, then
// dirty post-phase effects. Writes performed by effects re-enqueue work
// for the next iteration; iterations beyond the flush budget abort with
// ErrUnboundedFlush. Effect failures are isolated and delivered to the
// error sink only after the flush finishes.
func (rt *Runtime) flush() {
	rt.state = schedFlushing
	rt.flushRequested = false

	// Flushing must never become a terminal state: even if a panic escapes
	// the loop (a commit hook, an observer), later writes can still flush.
	defer func() { rt.state = schedIdle }()

	for _, ob := range rt.observers {
		ob.FlushStart()
	}

	start := time.Now()
	var info FlushInfo

	for {
		info.Iterations++
		if info.Iterations > rt.flushBudget {
			rt.abortFlush()
			rt.flushErrors = append(rt.flushErrors, ErrUnboundedFlush)
			info.Iterations--
			break
		}

		info.PreEffects += rt.runQueue(&rt.preQueue)
		if rt.commitHook != nil {
			rt.commitHook()
		}
		info.PostEffects += rt.runQueue(&rt.postQueue)

		if !rt.hasPending() {
			break
		}
	}

	rt.state = schedIdle

	info.Duration = time.Since(start)
	errs := rt.flushErrors
	rt.flushErrors = nil
	info.Errors = len(errs)

	rt.stats.recordFlush(info)

	for _, ob := range rt.observers {
		ob.FlushEnd(info)
	}
	for _, err := range errs {
		rt.errSink(err)
	}
}

// runQueue drains the current contents of one phase queue. Effects marked
// dirty while the queue runs land in the fresh queue slice and belong to
// the next iteration, so no effect runs twice in the same iteration.
func (rt *Runtime) runQueue(q *[]*Effect) int {
	effects := *q
	*q = nil

	ran := 0
	for _, e := range effects {
		if e.pending.Load() {
			e.run()
			ran++
		}
	}
	return ran
}

// abortFlush drops all pending work after the budget is exceeded, clearing
// pending flags so a later external write can reschedule the effects.
func (rt *Runtime) abortFlush() {
	for _, e := range rt.preQueue {
		e.pending.Store(false)
	}
	for _, e := range rt.postQueue {
		e.pending.Store(false)
	}
	rt.preQueue = nil
	rt.postQueue = nil
}
