package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Canonical JSON for persisted bags and payloads.
//
// Metadata bags and payloads are stored in a deterministic serialization:
// object keys sorted bytewise, strings NFC normalized, no HTML escaping,
// numbers preserved verbatim. Determinism matters because etag comparison,
// golden test fixtures, and byte-level chain diffing all assume that equal
// content serializes to equal bytes.

// MarshalBag serializes a metadata bag canonically.
func MarshalBag(bag map[string]string) ([]byte, error) {
	obj := make(map[string]any, len(bag))
	for k, v := range bag {
		obj[k] = v
	}
	return marshalCanonical(obj)
}

// UnmarshalBag decodes a bag serialized by MarshalBag.
func UnmarshalBag(data []byte) (map[string]string, error) {
	bag := map[string]string{}
	if len(data) == 0 {
		return bag, nil
	}
	if err := json.Unmarshal(data, &bag); err != nil {
		return nil, fmt.Errorf("unmarshal metadata bag: %w", err)
	}
	return bag, nil
}

// CanonicalPayload re-encodes an arbitrary JSON payload deterministically.
// Numbers pass through undisturbed (no float round-tripping).
func CanonicalPayload(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonical payload: %w", err)
	}
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return appendCanonicalString(buf, val)
	case json.Number:
		buf.WriteString(val.String())
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := appendCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonical JSON: unsupported type %T", v)
	}
	return nil
}

func appendCanonicalString(buf *bytes.Buffer, s string) error {
	var sb bytes.Buffer
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return fmt.Errorf("canonical string: %w", err)
	}
	buf.Write(bytes.TrimRight(sb.Bytes(), "\n"))
	return nil
}
