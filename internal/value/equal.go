package value

// Equal reports whether a and b are structurally equal.
//
// Object key order is irrelevant. Numbers compare by literal text, so 1 and
// 1.0 are different values; this matches how other implementations of the
// protocol compare JSON primitives.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}

	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, exists := bv[k]
			if !exists || !Equal(elem, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Contains reports whether v is structurally equal to any element of list.
func Contains(list []Value, v Value) bool {
	for _, elem := range list {
		if Equal(elem, v) {
			return true
		}
	}
	return false
}
