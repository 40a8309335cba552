package pulse

import "sync/atomic"

// disposer is anything a scope can own and tear down.
type disposer interface {
	Dispose()
}

// Scope is a disposal tree node owning effects and child scopes. Disposing
// a scope tears its children down in reverse registration order (effects
// and sub-scopes interleaved as they were created), then runs its own
// OnCleanup callbacks in reverse, then detaches from its parent.
type Scope struct {
	id uint64
	rt *Runtime

	// parent is the owning scope; nil for a root.
	parent *Scope

	// nodes are owned effects and child scopes in registration order.
	nodes []disposer

	// cleanups are manual teardown callbacks registered via OnCleanup.
	cleanups []func()

	// values stores context values visible to descendants.
	values map[any]any

	// disposed indicates this scope has been torn down.
	disposed atomic.Bool
}

// NewScope creates a scope owned by parent. A nil parent creates a root
// scope the caller must dispose.
func NewScope(rt *Runtime, parent *Scope) *Scope {
	s := &Scope{
		id:     nextID(),
		rt:     rt,
		parent: parent,
	}

	if parent != nil {
		parent.register(s)
	}
	rt.stats.liveScopes.Add(1)

	return s
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed reports whether this scope has been disposed.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// register adds a child node. Reports false when the scope is already
// disposed, in which case the child was not adopted.
func (s *Scope) register(d disposer) bool {
	if s.disposed.Load() {
		return false
	}
	s.nodes = append(s.nodes, d)
	return true
}

// remove detaches a child node without disposing it.
func (s *Scope) remove(d disposer) {
	if s.disposed.Load() {
		return
	}
	for i, n := range s.nodes {
		if n == d {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return
		}
	}
}

// OnCleanup registers a teardown callback run when the scope is disposed,
// after all children are gone. Registering on an already-disposed scope
// runs the callback immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// Dispose tears down this scope: children in reverse registration order,
// then cleanups in reverse, then detach from the parent. Idempotent;
// further invalidation is never delivered to the scope's effects once
// Dispose returns.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	s.rt.stats.liveScopes.Add(-1)

	nodes := s.nodes
	s.nodes = nil
	for i := len(nodes) - 1; i >= 0; i-- {
		nodes[i].Dispose()
	}

	cleanups := s.cleanups
	s.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	if s.parent != nil {
		s.parent.remove(s)
	}
}

// SetValue sets a context value on this scope, visible to descendants via
// GetValue.
func (s *Scope) SetValue(key, value any) {
	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}

// GetValue retrieves a context value from this scope or the nearest
// ancestor that set it. Returns nil if no value is found.
func (s *Scope) GetValue(key any) any {
	if s.values != nil {
		if v, ok := s.values[key]; ok {
			return v
		}
	}
	if s.parent != nil {
		return s.parent.GetValue(key)
	}
	return nil
}

// SetContext sets a context value on the current scope.
func (rt *Runtime) SetContext(key, value any) {
	if sc := rt.currentScope(); sc != nil {
		sc.SetValue(key, value)
	}
}

// GetContext retrieves a context value from the nearest provider in the
// current scope chain. Returns nil outside any scope.
func (rt *Runtime) GetContext(key any) any {
	if sc := rt.currentScope(); sc != nil {
		return sc.GetValue(key)
	}
	return nil
}

// CreateRoot runs fn inside a fresh top-level scope that no enclosing
// lifecycle owns. It returns fn's result and the scope's dispose function;
// the caller is responsible for calling it. Disposing twice is a no-op.
func CreateRoot[T any](rt *Runtime, fn func() T) (T, func()) {
	root := NewScope(rt, nil)

	prev := rt.setCurrentScope(root)
	defer rt.setCurrentScope(prev)

	value := fn()
	return value, root.Dispose
}
