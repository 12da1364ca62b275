package matchers

import "reflect"

// Equal is a matcher that tests whether the input value matches the expected value according
// to reflect.DeepEqual. Two maps or slices with the same contents are equal.
func Equal(expectedValue interface{}) Matcher {
	return Expect("equal to "+Describe(expectedValue), func(value interface{}) bool {
		return reflect.DeepEqual(value, expectedValue)
	})
}

// StrictEqual is a matcher that tests whether the input value has the same dynamic type as the
// expected value and is == to it. Unlike Equal, two distinct maps are never strictly equal,
// and neither are values of different types such as int(1) and int64(1).
func StrictEqual(expectedValue interface{}) Matcher {
	return Expect("strictly equal to "+Describe(expectedValue), func(value interface{}) bool {
		return strictlyEqual(value, expectedValue)
	})
}

func strictlyEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

// sameValue is == extended to values that hold maps, slices or funcs anywhere inside them.
// Those only equal themselves, like references, where == would panic.
func sameValue(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Map:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	case reflect.Func:
		return false
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	default:
		return a.Equal(b)
	}
}

// BeNil is a matcher that passes for nil, including a nil pointer, map or slice inside an
// interface value.
func BeNil() Matcher {
	return Expect("nil", isNil)
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
