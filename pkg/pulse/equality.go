package pulse

import "reflect"

// defaultEquals is the default change detector: primitives compare by ==,
// reference kinds (pointers, maps, slices, channels, funcs) compare by
// identity, and any other composite is treated as changed. Deep structural
// comparison is deliberately not the default; it hides aliased mutation
// and costs O(size) on every write. Use WithEquals for structural
// semantics where they are wanted.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case nil:
		return any(b) == nil
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case uintptr:
		return av == any(b).(uintptr)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case complex64:
		return av == any(b).(complex64)
	case complex128:
		return av == any(b).(complex128)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	}

	va := reflect.ValueOf(any(a))
	vb := reflect.ValueOf(any(b))
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
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

	// Structs, arrays, interfaces holding them: treated as changed.
	return false
}
