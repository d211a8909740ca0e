package gqlquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EncodeFilter renders a filter mapping as a BaseQL object literal.
//
// BaseQL rejects quoted keys inside argument objects, so keys are emitted as
// bare identifiers and must therefore be valid GraphQL names. Values keep
// their JSON form: strings quoted, numbers and booleans as-is, lists as
// lists. Nested mappings (operator objects such as {_contains: "x"}) follow
// the same rule recursively. Keys are sorted so identical filters always
// produce identical documents.
//
// Returns "" for an empty or nil filter.
//
// Usage:
//
//	EncodeFilter(map[string]any{"status": "Active", "tags": []any{"a"}})
//	// {status:"Active",tags:["a"]}
func EncodeFilter(filter map[string]any) (string, error) {
	if len(filter) == 0 {
		return "", nil
	}
	var b strings.Builder
	if err := writeObject(&b, filter, "filter key"); err != nil {
		return "", err
	}
	return b.String(), nil
}

// writeObject writes {key:value,...} with bare, validated keys.
func writeObject(b *strings.Builder, obj map[string]any, kind string) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if err := ValidateName(kind, k); err != nil {
			return err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte(':')
		if err := writeValue(b, obj[k], kind); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

// writeValue writes a single literal value. Scalars are JSON-encoded, which is
// also valid GraphQL literal syntax; containers recurse so nested keys stay bare.
func writeValue(b *strings.Builder, v any, kind string) error {
	switch val := v.(type) {
	case map[string]any:
		return writeObject(b, val, kind)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeValue(b, item, kind); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	case json.Number:
		b.WriteString(val.String())
		return nil
	case nil, string, bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		raw, err := marshalScalar(val)
		if err != nil {
			return invalidArgument(fmt.Sprintf("cannot encode %s value %v: %s", kind, v, err),
				map[string]any{"value": fmt.Sprint(v)})
		}
		b.Write(raw)
		return nil
	default:
		// Typed containers ([]string, map[string]string, structs) are
		// normalized through JSON so they take the container paths above.
		generic, err := normalize(val)
		if err != nil {
			return invalidArgument(fmt.Sprintf("cannot encode %s value of type %T", kind, v),
				map[string]any{"type": fmt.Sprintf("%T", v)})
		}
		return writeValue(b, generic, kind)
	}
}

func marshalScalar(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
