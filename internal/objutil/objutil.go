// Package objutil provides deep-copy, deep-equality, and deep-merge
// operations for JSON-shaped documents (map[string]any / []any trees).
//
// All functions treat documents as value graphs of maps, slices, and
// primitives. Numbers are compared by numeric value rather than Go kind,
// because equal numbers arrive as different Go kinds depending on the
// decode path.
package objutil

import "reflect"

// Clone returns a deep copy of a JSON-shaped value. The result shares no
// mutable structure (maps or slices) with the input. Primitives and nil
// are returned as-is.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Clone(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	default:
		return v
	}
}

// CloneMap is Clone specialized to document roots. A nil input yields an
// empty map, never nil, so callers can mutate the result unconditionally.
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Equal reports deep structural equality between two JSON-shaped values.
//
// Maps are equal when they hold the same keys with Equal values; slices
// when they have the same length with Equal elements in order. Numbers
// compare by value across int/int64/float64 kinds.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if na, ok := asFloat(a); ok {
		nb, ok := asFloat(b)
		return ok && na == nb
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, present := bv[k]
			if !present || !Equal(elem, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i, elem := range av {
			if !Equal(elem, bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Merge deep-merges src into dst and returns dst. On key conflicts src
// wins, except when both sides are maps, which merge recursively. Slices
// and primitives replace wholesale; there is no element-wise slice merge.
// dst is mutated; src is not.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, sv := range src {
		if sm, ok := sv.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				dst[k] = Merge(dm, sm)
				continue
			}
		}
		dst[k] = Clone(sv)
	}
	return dst
}

// IsPlainMap reports whether v is a plain string-keyed document mapping.
func IsPlainMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// Serializable reports whether v can round-trip through a document
// serializer. Functions, channels, complex numbers, and unsafe pointers
// cannot be represented and are rejected, recursively through maps and
// slices. nil is serializable (it encodes as null).
func Serializable(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case map[string]any:
		for _, elem := range val {
			if !Serializable(elem) {
				return false
			}
		}
		return true
	case []any:
		for _, elem := range val {
			if !Serializable(elem) {
				return false
			}
		}
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128,
		reflect.UnsafePointer, reflect.Uintptr:
		return false
	default:
		return true
	}
}

// asFloat converts any numeric kind to float64 for cross-kind comparison.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
