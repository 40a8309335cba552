package pulse

import "testing"

func TestCreateRootReturnsValueAndDispose(t *testing.T) {
	rt := NewRuntime()

	value, dispose := CreateRoot(rt, func() int { return 42 })
	if value != 42 {
		t.Errorf("expected 42, got %d", value)
	}
	dispose()
	dispose() // idempotent
}

func TestScopeDisposesEffects(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)

	runs := 0
	_, dispose := CreateRoot(rt, func() struct{} {
		rt.CreateEffect(func() Cleanup {
			_ = s.Get()
			runs++
			return nil
		})
		return struct{}{}
	})
	rt.FlushSync()
	if runs != 1 {
		t.Fatalf("expected 1 run, got %d", runs)
	}

	dispose()

	s.Set(1)
	rt.FlushSync()
	if runs != 1 {
		t.Errorf("effect in disposed scope must not rerun, got %d runs", runs)
	}
}

func TestScopeDisposalOrder(t *testing.T) {
	rt := NewRuntime()

	var log []string
	_, dispose := CreateRoot(rt, func() struct{} {
		rt.CreateEffect(func() Cleanup {
			return func() { log = append(log, "effect-a") }
		})

		sub := NewScope(rt, rt.currentScope())
		rt.WithScope(sub, func() {
			rt.CreateEffect(func() Cleanup {
				return func() { log = append(log, "effect-b") }
			})
		})
		sub.OnCleanup(func() { log = append(log, "sub-cleanup") })

		rt.CreateEffect(func() Cleanup {
			return func() { log = append(log, "effect-c") }
		})

		rt.currentScope().OnCleanup(func() { log = append(log, "root-cleanup") })
		return struct{}{}
	})
	rt.FlushSync()

	dispose()

	// Children in reverse registration order (effects and sub-scopes
	// interleaved), own cleanups last.
	want := []string{"effect-c", "effect-b", "sub-cleanup", "effect-a", "root-cleanup"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, log)
		}
	}
}

func TestNestedEffectsAttachToCreatorScope(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)

	innerRuns := 0
	_, dispose := CreateRoot(rt, func() struct{} {
		rt.CreateEffect(func() Cleanup {
			// Created during the outer run: owned by the same scope tree.
			rt.CreateEffect(func() Cleanup {
				_ = s.Get()
				innerRuns++
				return nil
			})
			return nil
		})
		return struct{}{}
	})
	rt.FlushSync()
	if innerRuns != 1 {
		t.Fatalf("expected nested effect to run, got %d", innerRuns)
	}

	dispose()

	s.Set(1)
	rt.FlushSync()
	if innerRuns != 1 {
		t.Errorf("nested effect must die with the scope tree, got %d runs", innerRuns)
	}
}

func TestEffectCreatedInDisposedScopeIsDead(t *testing.T) {
	rt := NewRuntime()

	scope := NewScope(rt, nil)
	scope.Dispose()

	runs := 0
	var e *Effect
	rt.WithScope(scope, func() {
		e = rt.CreateEffect(func() Cleanup {
			runs++
			return nil
		})
	})
	rt.FlushSync()

	if runs != 0 {
		t.Errorf("effect created in disposed scope must never run, got %d", runs)
	}
	if !e.IsDisposed() {
		t.Error("expected effect to be born disposed")
	}
}

func TestOnCleanupAfterDisposeRunsImmediately(t *testing.T) {
	rt := NewRuntime()

	scope := NewScope(rt, nil)
	scope.Dispose()

	called := false
	scope.OnCleanup(func() { called = true })
	if !called {
		t.Error("OnCleanup on disposed scope must run immediately")
	}
}

func TestScopeContextValues(t *testing.T) {
	rt := NewRuntime()

	type key struct{}

	got := ""
	_, dispose := CreateRoot(rt, func() struct{} {
		rt.SetContext(key{}, "outer")

		sub := NewScope(rt, rt.currentScope())
		rt.WithScope(sub, func() {
			// Inherited from the parent scope.
			if v, _ := rt.GetContext(key{}).(string); v != "outer" {
				t.Errorf("expected inherited value, got %q", v)
			}
			rt.SetContext(key{}, "inner")
			got, _ = rt.GetContext(key{}).(string)
		})

		// The override is scoped to the sub-scope.
		if v, _ := rt.GetContext(key{}).(string); v != "outer" {
			t.Errorf("expected outer value after sub-scope, got %q", v)
		}
		return struct{}{}
	})
	defer dispose()

	if got != "inner" {
		t.Errorf("expected inner, got %q", got)
	}
}

func TestScopeStatsTrackLiveNodes(t *testing.T) {
	rt := NewRuntime()

	_, dispose := CreateRoot(rt, func() struct{} {
		rt.CreateEffect(func() Cleanup { return nil })
		rt.CreateEffect(func() Cleanup { return nil })
		return struct{}{}
	})
	rt.FlushSync()

	if live := rt.Stats().LiveEffects; live != 2 {
		t.Errorf("expected 2 live effects, got %d", live)
	}

	dispose()
	if live := rt.Stats().LiveEffects; live != 0 {
		t.Errorf("expected 0 live effects after dispose, got %d", live)
	}
	if live := rt.Stats().LiveScopes; live != 0 {
		t.Errorf("expected 0 live scopes after dispose, got %d", live)
	}
}
