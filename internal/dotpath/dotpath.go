// Package dotpath implements structural access to nested documents via
// dot-separated path strings, e.g. "window.size.width".
//
// Each path segment addresses a key in a map[string]any. The accessor is
// purely structural: it has no schema awareness and no array indexing.
package dotpath

import "strings"

// Get returns the value at path and whether it exists. A path addressing
// through a non-map intermediate reports false.
func Get(doc map[string]any, path string) (any, bool) {
	parent, last, ok := walk(doc, path, false)
	if !ok {
		return nil, false
	}
	v, present := parent[last]
	return v, present
}

// GetDefault returns the value at path, or fallback when the path is
// absent. An explicitly stored nil is returned as nil, not as fallback.
func GetDefault(doc map[string]any, path string, fallback any) any {
	v, ok := Get(doc, path)
	if !ok {
		return fallback
	}
	return v
}

// Has reports whether path exists in doc. A key holding nil exists.
func Has(doc map[string]any, path string) bool {
	_, ok := Get(doc, path)
	return ok
}

// Set stores value at path, mutating doc in place. Missing intermediate
// maps are created; an intermediate holding a non-map value is replaced
// by a fresh map.
func Set(doc map[string]any, path string, value any) {
	parent, last, _ := walk(doc, path, true)
	parent[last] = value
}

// Delete removes the value at path, mutating doc in place. Deleting a
// missing path is a no-op.
func Delete(doc map[string]any, path string) {
	parent, last, ok := walk(doc, path, false)
	if !ok {
		return
	}
	delete(parent, last)
}

// walk descends to the map holding the final path segment. With create
// set, missing or non-map intermediates are replaced by fresh maps;
// otherwise the walk reports failure.
func walk(doc map[string]any, path string, create bool) (parent map[string]any, last string, ok bool) {
	segments := strings.Split(path, ".")
	current := doc
	for _, seg := range segments[:len(segments)-1] {
		next, present := current[seg]
		if !present {
			if !create {
				return nil, "", false
			}
			m := make(map[string]any)
			current[seg] = m
			current = m
			continue
		}
		m, isMap := next.(map[string]any)
		if !isMap {
			if !create {
				return nil, "", false
			}
			m = make(map[string]any)
			current[seg] = m
		}
		current = m
	}
	return current, segments[len(segments)-1], true
}
