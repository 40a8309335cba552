package pulse

import "testing"

func TestSignalBasic(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 0)

	// Initial value
	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	// Set value
	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	// Update value
	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalVersionStrictlyIncreases(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 0)

	v0 := count.Version()
	count.Set(1)
	v1 := count.Version()
	if v1 <= v0 {
		t.Errorf("expected version to increase, got %d -> %d", v0, v1)
	}

	// Same value: no version bump
	count.Set(1)
	if count.Version() != v1 {
		t.Errorf("same value should not bump version, got %d", count.Version())
	}

	count.Set(2)
	if count.Version() <= v1 {
		t.Errorf("expected version above %d, got %d", v1, count.Version())
	}
}

func TestSignalSubscription(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 0)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})
	rt.FlushSync()
	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	// Setting should rerun
	count.Set(1)
	rt.FlushSync()
	if runs != 2 {
		t.Errorf("expected 2 runs after change, got %d", runs)
	}

	// Same value should not rerun
	count.Set(1)
	rt.FlushSync()
	if runs != 2 {
		t.Errorf("same value should not rerun, got %d runs", runs)
	}

	// Different value should rerun
	count.Set(2)
	rt.FlushSync()
	if runs != 3 {
		t.Errorf("expected 3 runs, got %d", runs)
	}
}

func TestSignalPeekDoesNotSubscribe(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 42)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = count.Peek()
		runs++
		return nil
	})
	rt.FlushSync()
	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	count.Set(100)
	rt.FlushSync()
	if runs != 1 {
		t.Errorf("Peek should not subscribe, got %d runs", runs)
	}
}

func TestSignalNoTrackingOutsideContext(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 0)

	// Read outside any tracking context
	_ = count.Get()

	if rt.IsTracking() {
		t.Error("expected no active tracking context")
	}

	runs := 0
	rt.CreateEffect(func() Cleanup {
		// Don't read the signal here
		runs++
		return nil
	})
	rt.FlushSync()

	count.Set(1)
	rt.FlushSync()
	if runs != 1 {
		t.Errorf("effect without reads should not rerun, got %d runs", runs)
	}
}

func TestSignalMultipleSubscribers(t *testing.T) {
	rt := NewRuntime()
	count := NewSignal(rt, 0)

	runs := make([]int, 3)
	for i := range runs {
		i := i
		rt.CreateEffect(func() Cleanup {
			_ = count.Get()
			runs[i]++
			return nil
		})
	}
	rt.FlushSync()

	count.Set(1)
	rt.FlushSync()

	for i, r := range runs {
		if r != 2 {
			t.Errorf("effect %d: expected 2 runs, got %d", i, r)
		}
	}
}

func TestSignalDefaultEqualityIsIdentity(t *testing.T) {
	rt := NewRuntime()

	a := []int{1, 2, 3}
	b := []int{1, 2, 3}
	s := NewSignal(rt, a)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	rt.FlushSync()

	// Same backing array: suppressed
	s.Set(a)
	rt.FlushSync()
	if runs != 1 {
		t.Errorf("same slice identity should be suppressed, got %d runs", runs)
	}

	// Structurally equal but distinct allocation: a change
	s.Set(b)
	rt.FlushSync()
	if runs != 2 {
		t.Errorf("distinct slice should notify, got %d runs", runs)
	}
}

func TestSignalWithEquals(t *testing.T) {
	rt := NewRuntime()

	type point struct{ x, y int }
	s := NewSignal(rt, point{1, 2}).WithEquals(func(a, b point) bool {
		return a == b
	})

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = s.Get()
		runs++
		return nil
	})
	rt.FlushSync()

	s.Set(point{1, 2})
	rt.FlushSync()
	if runs != 1 {
		t.Errorf("equal struct under custom equality should be suppressed, got %d runs", runs)
	}

	s.Set(point{3, 4})
	rt.FlushSync()
	if runs != 2 {
		t.Errorf("changed struct should notify, got %d runs", runs)
	}
}

func TestUntrackedReads(t *testing.T) {
	rt := NewRuntime()
	tracked := NewSignal(rt, 0)
	ignored := NewSignal(rt, 0)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = tracked.Get()
		rt.Untracked(func() {
			_ = ignored.Get()
		})
		runs++
		return nil
	})
	rt.FlushSync()

	ignored.Set(1)
	rt.FlushSync()
	if runs != 1 {
		t.Errorf("untracked read should not subscribe, got %d runs", runs)
	}

	tracked.Set(1)
	rt.FlushSync()
	if runs != 2 {
		t.Errorf("tracked read should subscribe, got %d runs", runs)
	}
}

func TestUntrackReturnsValue(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 7)

	got := Untrack(rt, func() int { return s.Get() * 2 })
	if got != 14 {
		t.Errorf("expected 14, got %d", got)
	}
}
