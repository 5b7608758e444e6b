package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the canonical value model.
// Only Str, Int, Num, Bool, Arr, and Obj implement it.
// JSON null is forbidden: a pack field is either present with a value
// or absent, never null (null would make hashes depend on how an
// upstream serializer spells "missing").
type Value interface {
	canonValue()
}

// Str is a string value. NFC normalization is applied at
// serialization time, not at construction.
type Str string

func (Str) canonValue() {}

// Int is an integer value. Always int64.
type Int int64

func (Int) canonValue() {}

// Num is a floating-point value.
//
// Integral JSON numbers decode as Int, never Num, so "5000" and
// "5000.0" canonicalize identically. NaN and infinities are rejected
// at serialization time.
type Num float64

func (Num) canonValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) canonValue() {}

// Arr is an ordered array of values.
type Arr []Value

func (Arr) canonValue() {}

// Obj is a string-keyed object. Use SortedKeys for deterministic
// iteration.
type Obj map[string]Value

func (Obj) canonValue() {}

// SortedKeys returns keys in RFC 8785 canonical order: sorted by
// UTF-16 code units, NOT by UTF-8 bytes. The two orders diverge for
// code points above U+FFFF (surrogate pairs sort before U+E000-U+FFFF
// in UTF-16 but after in UTF-8).
func (o Obj) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares two strings by UTF-16 code units, as RFC 8785
// requires for object member ordering.
func compareUTF16(a, b string) int {
	au := utf16.Encode([]rune(a))
	bu := utf16.Encode([]rune(b))
	n := min(len(au), len(bu))
	for i := 0; i < n; i++ {
		if au[i] != bu[i] {
			if au[i] < bu[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(au) < len(bu):
		return -1
	case len(au) > len(bu):
		return 1
	default:
		return 0
	}
}

// FromJSON decodes JSON bytes into a Value with strict validation:
// null is rejected everywhere, and numbers with a fractional or
// exponent part become Num while all others become Int.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	// Reject trailing garbage after the first value.
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return FromAny(raw)
}

// FromAny converts a decoded Go value (as produced by encoding/json
// with UseNumber, or by a YAML decoder after JSON normalization) into
// a Value. Rejects null and non-finite numbers.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical values")
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return Str(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		if val == float64(int64(val)) {
			return Int(int64(val)), nil
		}
		return Num(val), nil
	case json.Number:
		s := string(val)
		if !strings.ContainsAny(s, ".eE") {
			n, err := val.Int64()
			if err != nil {
				return nil, fmt.Errorf("integer out of int64 range: %s", s)
			}
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, err)
		}
		if f == float64(int64(f)) {
			// Integral despite the spelling ("5000.0", "5e3"):
			// collapse to Int so spelling never changes the hash.
			return Int(int64(f)), nil
		}
		return Num(f), nil
	case []any:
		arr := make(Arr, len(val))
		for i, elem := range val {
			cv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = cv
		}
		return arr, nil
	case map[string]any:
		obj := make(Obj, len(val))
		for k, elem := range val {
			cv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", k, err)
			}
			obj[k] = cv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical value: %T", v)
	}
}
