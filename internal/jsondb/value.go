package jsondb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ErrUnsupportedValue is returned when a dynamic value has no column type.
var ErrUnsupportedValue = errors.New("unsupported value")

// Value is a single cell. Only the payload matching the tag is meaningful.
//
// The zero Value has TypeInvalid and is never stored in a table.
type Value struct {
	typ Type
	s   string
	i   int64
	f   float64
	b   bool
}

// String returns a STRING value.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// Integer returns an INTEGER value.
func Integer(i int64) Value { return Value{typ: TypeInteger, i: i} }

// Bool returns a BOOL value.
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// Float returns a FLOAT value.
func Float(f float64) Value { return Value{typ: TypeFloat, f: f} }

// ValueOf converts a dynamic Go value into a Value using Classify.
func ValueOf(v any) (Value, error) {
	if x, ok := v.(Value); ok {
		if !x.typ.Valid() {
			return Value{}, fmt.Errorf("%w: zero Value", ErrUnsupportedValue)
		}
		return x, nil
	}
	switch Classify(v) {
	case TypeString:
		return String(v.(string)), nil
	case TypeBool:
		return Bool(v.(bool)), nil
	case TypeInteger:
		if n, ok := v.(json.Number); ok {
			i, _ := n.Int64()
			return Integer(i), nil
		}
		rv := reflect.ValueOf(v)
		if rv.CanInt() {
			return Integer(rv.Int()), nil
		}
		return Integer(int64(rv.Uint())), nil
	case TypeFloat:
		switch x := v.(type) {
		case json.Number:
			f, _ := x.Float64()
			return Float(f), nil
		case float32:
			return Float(float64(x)), nil
		default:
			return Float(x.(float64)), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// MustValues converts a list of dynamic values and panics on failure. It is
// meant for literals in tests and examples.
func MustValues(vs ...any) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		x, err := ValueOf(v)
		if err != nil {
			panic(err)
		}
		out[i] = x
	}
	return out
}

// ParseLiteral parses a JSON scalar. Text that is not a valid JSON scalar is
// returned as a STRING, so `Amy` and `"Amy"` are equivalent. An integer that
// does not fit in int64 is an error.
func ParseLiteral(s string) (Value, error) {
	var v Value
	err := v.UnmarshalJSON([]byte(strings.TrimSpace(s)))
	if err == nil {
		return v, nil
	}
	if errors.Is(err, ErrIntegerOverflow) {
		return Value{}, err
	}
	return String(s), nil
}

// Type returns the value's tag.
func (v Value) Type() Type { return v.typ }

// Any returns the payload as a plain Go value: string, int64, bool or float64.
func (v Value) Any() any {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeInteger:
		return v.i
	case TypeBool:
		return v.b
	case TypeFloat:
		return v.f
	default:
		return nil
	}
}

// Str returns the STRING payload.
func (v Value) Str() string { return v.s }

// Int returns the INTEGER payload.
func (v Value) Int() int64 { return v.i }

// Float returns the FLOAT payload.
func (v Value) Float() float64 { return v.f }

// Bool returns the BOOL payload.
func (v Value) Bool() bool { return v.b }

// Equal reports whether both values have the same tag and payload.
//
// There is no numeric promotion: Integer(1) does not equal Float(1).
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeString:
		return v.s == o.s
	case TypeInteger:
		return v.i == o.i
	case TypeBool:
		return v.b == o.b
	case TypeFloat:
		return v.f == o.f
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.typ {
	case TypeString:
		return v.s
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeFloat:
		return formatFloat(v.f)
	default:
		return "<invalid>"
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeString:
		return marshalJSON(v.s)
	case TypeInteger:
		return strconv.AppendInt(nil, v.i, 10), nil
	case TypeBool:
		return strconv.AppendBool(nil, v.b), nil
	case TypeFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("%w: %v cannot be represented in JSON", ErrUnsupportedValue, v.f)
		}
		return []byte(formatFloat(v.f)), nil
	default:
		return nil, fmt.Errorf("%w: zero Value", ErrUnsupportedValue)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers without a fraction or an
// exponent decode as INTEGER, other numbers as FLOAT.
func (v *Value) UnmarshalJSON(b []byte) error {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	var raw any
	if err := d.Decode(&raw); err != nil {
		return err
	}
	if d.More() {
		return errors.New("trailing data after value")
	}
	if n, ok := raw.(json.Number); ok && strings.ContainsAny(n.String(), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return err
		}
		*v = Float(f)
		return nil
	}
	if n, ok := raw.(json.Number); ok {
		if _, err := n.Int64(); err != nil {
			return fmt.Errorf("%w: %s", ErrIntegerOverflow, n)
		}
	}
	x, err := ValueOf(raw)
	if err != nil {
		if raw == nil {
			return fmt.Errorf("%w: null", ErrUnsupportedValue)
		}
		return err
	}
	*v = x
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	return v.Any(), nil
}

// formatFloat keeps a fractional part on whole numbers so they decode back
// as FLOAT.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
