package pulse

import "testing"

func TestLinkedFollowsSource(t *testing.T) {
	rt := NewRuntime()
	source := NewSignal(rt, "v1")

	l := NewLinked(rt, source.Get)
	rt.FlushSync()

	if l.Get() != "v1" {
		t.Errorf("expected initial v1, got %q", l.Get())
	}
	if !l.IsLinked() {
		t.Error("expected linked initially")
	}

	source.Set("v2")
	rt.FlushSync()
	if l.Get() != "v2" {
		t.Errorf("expected v2 after source change, got %q", l.Get())
	}
	if !l.IsLinked() {
		t.Error("expected still linked after write-through")
	}
}

func TestLinkedLocalWriteUnlinks(t *testing.T) {
	rt := NewRuntime()
	source := NewSignal(rt, 1)

	l := NewLinked(rt, source.Get)
	rt.FlushSync()

	l.Set(100)
	if l.IsLinked() {
		t.Error("local write must break the link")
	}
	if l.Get() != 100 {
		t.Errorf("expected local value 100, got %d", l.Get())
	}

	// The next incoming change re-links and overwrites the local edit.
	source.Set(2)
	rt.FlushSync()
	if l.Get() != 2 {
		t.Errorf("incoming change must overwrite local value, got %d", l.Get())
	}
	if !l.IsLinked() {
		t.Error("incoming change must re-link")
	}
}

func TestLinkedReactiveReaders(t *testing.T) {
	rt := NewRuntime()
	source := NewSignal(rt, 1)
	l := NewLinked(rt, source.Get)

	var seen []int
	rt.CreateEffect(func() Cleanup {
		seen = append(seen, l.Get())
		return nil
	})
	rt.FlushSync()

	l.Set(5)
	rt.FlushSync()

	source.Set(9)
	rt.FlushSync()

	want := []int{1, 5, 9}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestLinkedOnIncomingCallback(t *testing.T) {
	rt := NewRuntime()
	source := NewSignal(rt, 10)

	var l *Linked[int]
	l = NewLinked(rt, source.Get, WithOnIncoming[int](func(incoming int) {
		// Merge instead of overwrite: keep local edits, add the delta.
		l.Set(l.Peek() + incoming)
	}))
	rt.FlushSync()

	l.Set(1)
	source.Set(20)
	rt.FlushSync()

	if l.Get() != 21 {
		t.Errorf("expected callback-merged value 21, got %d", l.Get())
	}
	if !l.IsLinked() {
		t.Error("callback writes count as incoming and must keep the link")
	}
}

func TestLinkedInitialValueIsCloned(t *testing.T) {
	rt := NewRuntime()
	backing := []int{1, 2, 3}
	source := NewSignal(rt, backing)

	l := NewLinked(rt, source.Get)
	rt.FlushSync()

	backing[0] = 99
	if l.Get()[0] != 1 {
		t.Errorf("linked state must hold a clone, got %v", l.Get())
	}
}

func TestLinkedDisposeStopsFollowing(t *testing.T) {
	rt := NewRuntime()
	source := NewSignal(rt, 1)

	l := NewLinked(rt, source.Get)
	rt.FlushSync()

	l.Dispose()

	source.Set(2)
	rt.FlushSync()
	if l.Get() != 1 {
		t.Errorf("disposed linked state must stop following, got %d", l.Get())
	}
}

func TestLinkedAppliesChangeBeforeFirstFlush(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)
	l := NewLinked(rt, s.Get)

	// The source moves after creation but before the watcher's first run.
	s.Set(5)
	rt.FlushSync()

	if got := l.Peek(); got != 5 {
		t.Errorf("expected write-through of pre-flush change, got %d", got)
	}
	if !l.IsLinked() {
		t.Error("expected link intact after write-through")
	}
}
