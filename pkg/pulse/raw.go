package pulse

import "reflect"

// Raw is a signal holding a value by reference identity: the value is
// never cloned, proxied or instrumented, and change detection is identity
// only. Mutating the held value in place is invisible to the runtime;
// only Set with a different reference notifies subscribers.
//
// Use it for values reactivity should carry but not observe, such as
// handles to external resources or large buffers.
type Raw[T any] struct {
	*Signal[T]
}

// NewRaw creates a raw signal on rt holding initial by reference.
func NewRaw[T any](rt *Runtime, initial T) *Raw[T] {
	s := NewSignal(rt, initial)
	s.WithEquals(identityEquals[T])
	return &Raw[T]{Signal: s}
}

// identityEquals compares by reference identity: pointers and other
// reference kinds by address, everything else (including comparable
// value types) is treated as changed on every write.
func identityEquals[T any](a, b T) bool {
	aa, ba := any(a), any(b)
	if aa == nil || ba == nil {
		return aa == nil && ba == nil
	}
	va, vb := reflect.ValueOf(aa), reflect.ValueOf(ba)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Pointer() == vb.Pointer()
	}
	return false
}
