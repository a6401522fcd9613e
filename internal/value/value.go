// Package value provides numeric coercion and ordering helpers for
// runtime values handled by the VM's primitive implementations.
package value

import "fmt"

// GetInt64 extracts an int64 from any Go integer type.
// Booleans and floats are not integers; they return false.
func GetInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// GetFloat64 extracts a float64 from any Go float or integer type.
func GetFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		if i, ok := GetInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// IsNumeric reports whether v carries a numeric value.
func IsNumeric(v any) bool {
	_, ok := GetFloat64(v)
	return ok
}

// Order compares two values of compatible kinds, returning -1, 0, or 1.
//
// Numeric values compare numerically with integer-to-float promotion.
// Strings compare lexicographically and booleans as false < true. Nil
// equals nil. Incompatible kinds are an error.
func Order(a, b any) (int, error) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, nil
		}
		return 0, fmt.Errorf("value: cannot order %T against %T", a, b)
	}

	if ai, aok := GetInt64(a); aok {
		if bi, bok := GetInt64(b); bok {
			return cmpOrdered(ai, bi), nil
		}
	}
	if af, aok := GetFloat64(a); aok {
		if bf, bok := GetFloat64(b); bok {
			return cmpOrdered(af, bf), nil
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return cmpOrdered(as, bs), nil
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0, nil
			case bb:
				return -1, nil
			default:
				return 1, nil
			}
		}
	}

	return 0, fmt.Errorf("value: cannot order %T against %T", a, b)
}

// Equal reports whether a and b are equal under [Order] semantics; values
// of incomparable kinds are unequal, not an error.
func Equal(a, b any) bool {
	c, err := Order(a, b)
	return err == nil && c == 0
}

func cmpOrdered[T interface {
	~int64 | ~float64 | ~string
}](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
