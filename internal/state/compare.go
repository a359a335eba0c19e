package state

import "reflect"

// sameValue is the default equality used when a facet or field supplies no
// comparator. It is identity-flavoured: comparable values compare with ==,
// uncomparable values (slices, maps, funcs) compare by underlying pointer.
// Two values of different dynamic types are never the same.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && (va.Len() == 0 || va.Pointer() == vb.Pointer())
	case reflect.Map, reflect.Func, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	}
	return false
}

// sameInputs compares two multi-provider results pointwise with the facet's
// input comparator.
func sameInputs(a, b []any, eq func(any, any) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}
