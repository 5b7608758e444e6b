package canon

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical byte form of a Value.
// CRITICAL: this is the only serialization that may feed a digest.
//
// Rules:
//  1. Object keys sorted by UTF-16 code units (RFC 8785 ordering).
//  2. Strings NFC-normalized, minimal escaping, no HTML escaping
//     (< > & stay literal).
//  3. No insignificant whitespace.
//  4. Integers in plain decimal; floats in shortest round-trip form
//     via strconv 'g'/-1. Integral floats render as integers.
//  5. null, NaN, and infinities are errors.
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case Str:
		appendCanonicalString(buf, string(val))
		return nil
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case Num:
		return appendCanonicalNumber(buf, float64(val))
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Arr:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case Obj:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := appendCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported canonical value: %T", v)
	}
}

// appendCanonicalString writes a JSON string with RFC 8785 minimal
// escaping. Only the quote, the backslash, and control characters
// below U+0020 are escaped; everything else (including < > & and the
// U+2028/U+2029 separators) is emitted literally in UTF-8.
//
// encoding/json cannot be used here: its encoder HTML-escapes by
// default and always escapes U+2028/U+2029, both of which violate the
// canonical form.
func appendCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)

	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			buf.WriteString(`\"`)
		case c == '\\':
			buf.WriteString(`\\`)
		case c == '\b':
			buf.WriteString(`\b`)
		case c == '\t':
			buf.WriteString(`\t`)
		case c == '\n':
			buf.WriteString(`\n`)
		case c == '\f':
			buf.WriteString(`\f`)
		case c == '\r':
			buf.WriteString(`\r`)
		case c < 0x20:
			fmt.Fprintf(buf, `\u%04x`, c)
		default:
			// Non-control bytes pass through, including multi-byte
			// UTF-8 sequences (control chars are single bytes, so a
			// byte loop is safe).
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}

// appendCanonicalNumber writes a float in shortest round-trip decimal
// form. Integral values render without a fractional part so Int and
// Num never disagree about the same mathematical value.
func appendCanonicalNumber(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number is forbidden in canonical JSON: %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}
