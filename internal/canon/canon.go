// Package canon produces RFC 8785 canonical JSON and content hashes over it.
//
// Canonical JSON is the only serialization used for identity: snapshot
// hashes recorded in the transition log and golden traces are computed over
// these bytes. Key properties:
//
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & stay literal)
//  3. Strings NFC normalized at the serialization boundary
//  4. No floats, no null (both return an error)
package canon

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Marshal serializes v as canonical JSON. Supported values are string, int,
// int64, bool, []any, and map[string]any, nested arbitrarily.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		encodeString(buf, val)
		return nil
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			if err := encode(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

const hexDigits = "0123456789abcdef"

// encodeString writes a canonical JSON string: NFC normalized, with only
// the quote, the backslash, and control characters escaped. Unlike
// encoding/json this leaves < > & and U+2028/U+2029 literal, as RFC 8785
// requires.
func encodeString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for _, b := range []byte(s) {
		switch {
		case b == '"':
			buf.WriteString(`\"`)
		case b == '\\':
			buf.WriteString(`\\`)
		case b == '\b':
			buf.WriteString(`\b`)
		case b == '\t':
			buf.WriteString(`\t`)
		case b == '\n':
			buf.WriteString(`\n`)
		case b == '\f':
			buf.WriteString(`\f`)
		case b == '\r':
			buf.WriteString(`\r`)
		case b < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[b>>4])
			buf.WriteByte(hexDigits[b&0xf])
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte('"')
}

// sortedKeys returns map keys in UTF-16 code unit order. Go's native string
// comparison orders by UTF-8 bytes, which diverges from RFC 8785 for
// characters outside the BMP.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
