package pulse

import (
	"sync"
	"sync/atomic"
)

// idCounter issues process-wide consumer and node ids. Monotonic and never
// reused, shared across runtimes so ids stay unambiguous in error reports
// and inspector output.
var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}

// Consumer is anything that can be notified when a dependency changes.
// It is implemented by Derived (invalidates its cache) and Effect
// (schedules a rerun).
type Consumer interface {
	// MarkDirty notifies the consumer that one of its dependencies changed.
	// Marking is idempotent within a flush.
	MarkDirty()

	// ID returns a unique identifier for this consumer.
	// Used for deduplication of subscriber sets.
	ID() uint64
}

// Cleanup is a function returned by effect bodies to release resources.
// It is called before the effect reruns and when the effect is disposed.
type Cleanup func()

// node provides type-erased subscriber management and version bookkeeping.
// It is embedded in Signal[T] and Derived[T] to share subscription logic.
//
// version increases strictly on every accepted value change. Consumers
// record the version of each dependency when they run; a consumer is
// actually stale only if some recorded version no longer matches.
type node struct {
	id uint64
	rt *Runtime

	version uint64

	// refresh brings the owning Derived up to date before a version
	// comparison. nil for plain signals.
	refresh func()

	// subs are the consumers subscribed to this node.
	subs []Consumer

	// subMu protects the subs slice.
	subMu sync.RWMutex
}

// subscribe adds a consumer to this node's subscribers.
// Deduplicates by consumer ID to prevent double-subscription.
func (n *node) subscribe(c Consumer) {
	if c == nil {
		return
	}

	n.subMu.Lock()
	defer n.subMu.Unlock()

	cid := c.ID()
	for _, existing := range n.subs {
		if existing.ID() == cid {
			return
		}
	}

	n.subs = append(n.subs, c)
}

// unsubscribe removes a consumer from this node's subscribers.
func (n *node) unsubscribe(c Consumer) {
	if c == nil {
		return
	}

	n.subMu.Lock()
	defer n.subMu.Unlock()

	cid := c.ID()
	for i, existing := range n.subs {
		if existing.ID() == cid {
			// Remove by swapping with last element (order doesn't matter)
			n.subs[i] = n.subs[len(n.subs)-1]
			n.subs = n.subs[:len(n.subs)-1]
			return
		}
	}
}

// markSubscribers marks every subscriber dirty.
// Uses copy-before-notify to avoid holding the lock during notification.
func (n *node) markSubscribers() {
	n.subMu.RLock()
	subs := make([]Consumer, len(n.subs))
	copy(subs, n.subs)
	n.subMu.RUnlock()

	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// bump records an accepted value change.
func (n *node) bump() {
	n.version++
}

// dep records one dependency edge together with the version observed when
// the consumer last ran.
type dep struct {
	src     *node
	version uint64
}

// depsChanged reports whether any recorded dependency has moved past its
// recorded version. Derived dependencies are refreshed first so that a
// transitively marked chain settles before the comparison; a derived that
// recomputes to an equal value keeps its version and suppresses the change.
func depsChanged(deps []dep) bool {
	changed := false
	for _, d := range deps {
		if d.src.refresh != nil {
			d.src.refresh()
		}
		if d.src.version != d.version {
			changed = true
		}
	}
	return changed
}
