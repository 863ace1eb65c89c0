package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/roach88/confstore/internal/canonicaljson"
)

// Serializer converts between the on-disk byte representation and the
// in-memory document. Marshal must produce valid UTF-8 text; Unmarshal
// must accept what Marshal produced.
type Serializer struct {
	Marshal   func(doc map[string]any) ([]byte, error)
	Unmarshal func(data []byte) (map[string]any, error)
}

// JSONSerializer is the default serializer: deterministic tab-indented
// JSON on write, strict JSON on read. Integer-valued numbers decode to
// int64 rather than float64 so that schema integer constraints hold
// across a round trip.
func JSONSerializer() Serializer {
	return Serializer{
		Marshal:   marshalJSON,
		Unmarshal: unmarshalJSON,
	}
}

// JSONCSerializer writes the same deterministic JSON but tolerates
// comments and trailing commas on read, for hand-edited config files.
func JSONCSerializer() Serializer {
	return Serializer{
		Marshal: marshalJSON,
		Unmarshal: func(data []byte) (map[string]any, error) {
			return unmarshalJSON(jsonc.ToJSON(data))
		},
	}
}

// YAMLSerializer round-trips the document as YAML.
func YAMLSerializer() Serializer {
	return Serializer{
		Marshal: func(doc map[string]any) ([]byte, error) {
			data, err := yaml.Marshal(doc)
			if err != nil {
				return nil, fmt.Errorf("encode yaml: %w", err)
			}
			return data, nil
		},
		Unmarshal: func(data []byte) (map[string]any, error) {
			var doc map[string]any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
			if doc == nil {
				doc = map[string]any{}
			}
			return normalizeMap(doc), nil
		},
	}
}

func marshalJSON(doc map[string]any) ([]byte, error) {
	return canonicaljson.MarshalIndent(doc)
}

func unmarshalJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return normalizeMap(doc), nil
}

// Normalize lowers serializer-specific value kinds (json.Number, int,
// yaml's map[any]any) to the document's canonical in-memory kinds:
// map[string]any, []any, string, bool, int64, float64, nil. Hosts that
// decode values themselves should normalize before calling Set, so that
// integer-valued numbers stay integral under schema int constraints.
func Normalize(v any) any {
	return normalize(v)
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		// yaml.v3 produces this for non-string keys; coerce keys to
		// strings since the document model is string-keyed.
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprintf("%v", k)] = normalize(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalize(elem)
		}
		return out
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return f
	case int:
		return int64(val)
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}
