// Package canonicaljson renders JSON-shaped documents deterministically:
// object keys in sorted byte order, strings NFC-normalized, no HTML
// escaping. Two encodings of deep-equal documents are byte-identical,
// which keeps the on-disk configuration file diff-friendly across writes.
//
// Unlike hash-oriented canonical JSON, floats and null are legal here:
// configuration documents are full JSON.
package canonicaljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Marshal encodes v as compact canonical JSON.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v, "", ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent encodes v as tab-indented canonical JSON with a trailing
// newline, the layout the default serializer writes to disk.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v, "", "\t"); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any, prefix, indent string) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return encodeString(buf, val)
	case json.Number:
		buf.WriteString(val.String())
		return nil
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int8:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int16:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
		return nil
	case float32:
		return encodeFloat(buf, float64(val))
	case float64:
		return encodeFloat(buf, val)
	case map[string]any:
		return encodeObject(buf, val, prefix, indent)
	case []any:
		return encodeArray(buf, val, prefix, indent)
	default:
		// Arbitrary Go values (structs, typed slices) take a round trip
		// through encoding/json to reach document shape first.
		plain, err := toPlain(v)
		if err != nil {
			return err
		}
		return encode(buf, plain, prefix, indent)
	}
}

func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("canonicaljson: cannot encode %v", f)
	}
	// Integral floats render without a fraction so that a decode/encode
	// round trip reproduces the original file byte-for-byte.
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// encodeString writes an NFC-normalized JSON string without HTML escaping.
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return fmt.Errorf("canonicaljson: encode string: %w", err)
	}
	// json.Encoder appends a newline; drop it.
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any, prefix, indent string) error {
	if len(obj) == 0 {
		buf.WriteString("{}")
		return nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inner := prefix + indent
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeNewline(buf, inner, indent)
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if indent != "" {
			buf.WriteByte(' ')
		}
		if err := encode(buf, obj[k], inner, indent); err != nil {
			return err
		}
	}
	writeNewline(buf, prefix, indent)
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, arr []any, prefix, indent string) error {
	if len(arr) == 0 {
		buf.WriteString("[]")
		return nil
	}

	inner := prefix + indent
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeNewline(buf, inner, indent)
		if err := encode(buf, elem, inner, indent); err != nil {
			return err
		}
	}
	writeNewline(buf, prefix, indent)
	buf.WriteByte(']')
	return nil
}

func writeNewline(buf *bytes.Buffer, prefix, indent string) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(prefix)
}

// toPlain lowers an arbitrary Go value to document shape via encoding/json.
func toPlain(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicaljson: unsupported value %T: %w", v, err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("canonicaljson: %w", err)
	}
	return plain, nil
}
