package pulse

import "testing"

func TestInspectEmitsInitAndUpdates(t *testing.T) {
	rt := NewRuntime(WithDevMode(true))

	s := NewSignal(rt, 1)
	d := NewDerived(rt, func() int { return s.Get() * 10 })

	type call struct {
		kind   string
		values []any
	}
	var calls []call
	dispose := Inspect(rt, func(kind string, values ...any) {
		calls = append(calls, call{kind, values})
	}, s, d)
	rt.FlushSync()

	if len(calls) != 1 || calls[0].kind != "init" {
		t.Fatalf("expected single init call, got %v", calls)
	}
	if calls[0].values[0] != 1 || calls[0].values[1] != 10 {
		t.Errorf("expected init values [1 10], got %v", calls[0].values)
	}

	s.Set(2)
	rt.FlushSync()

	if len(calls) != 2 || calls[1].kind != "update" {
		t.Fatalf("expected update call, got %v", calls)
	}
	if calls[1].values[0] != 2 || calls[1].values[1] != 20 {
		t.Errorf("expected update values [2 20], got %v", calls[1].values)
	}

	dispose()
	s.Set(3)
	rt.FlushSync()
	if len(calls) != 2 {
		t.Errorf("disposed inspect must not fire, got %d calls", len(calls))
	}
}

func TestInspectIsNoopWithoutDevMode(t *testing.T) {
	rt := NewRuntime()

	s := NewSignal(rt, 1)

	calls := 0
	dispose := Inspect(rt, func(string, ...any) { calls++ }, s)
	rt.FlushSync()

	s.Set(2)
	rt.FlushSync()

	if calls != 0 {
		t.Errorf("inspect must be a no-op without dev mode, got %d calls", calls)
	}
	dispose()
}

func TestInspectWithNoSources(t *testing.T) {
	rt := NewRuntime(WithDevMode(true))
	dispose := Inspect(rt, func(string, ...any) {})
	dispose()
}
