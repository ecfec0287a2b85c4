// Classifies values into the fixed set of column types.

package jsondb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Type is the type tag of a column or a value.
type Type uint8

const (
	// TypeInvalid is returned for values that have no column type.
	TypeInvalid Type = iota
	// TypeString holds text.
	TypeString
	// TypeInteger holds a signed 64 bits integer.
	TypeInteger
	// TypeBool holds true or false.
	TypeBool
	// TypeFloat holds a 64 bits floating point number.
	TypeFloat
)

// Types lists the recognized column types in declaration order.
var Types = []Type{TypeString, TypeInteger, TypeBool, TypeFloat}

func (t Type) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeInteger:
		return "INTEGER"
	case TypeBool:
		return "BOOL"
	case TypeFloat:
		return "FLOAT"
	case TypeInvalid:
		return "INVALID"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Valid reports whether t is one of the recognized column types.
func (t Type) Valid() bool {
	return t >= TypeString && t <= TypeFloat
}

// ParseType returns the Type for a persisted tag. Tags are case sensitive.
func ParseType(tag string) (Type, error) {
	for _, t := range Types {
		if t.String() == tag {
			return t, nil
		}
	}
	return TypeInvalid, &InvalidTypeError{Type: tag}
}

// MarshalJSON implements json.Marshaler.
func (t Type) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal %s: %w", t, ErrInvalidType)
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("type tag must be a string: %w", err)
	}
	v, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t Type) MarshalYAML() (any, error) {
	return t.String(), nil
}

// Classify returns the column type of a dynamic value, or TypeInvalid.
//
// bool is tested before the integer kinds so a boolean is never classified as
// INTEGER.
func Classify(v any) Type {
	switch x := v.(type) {
	case Value:
		return x.typ
	case bool:
		return TypeBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return TypeInteger
	case uint64:
		if x > 1<<63-1 {
			return TypeInvalid
		}
		return TypeInteger
	case float32, float64:
		return TypeFloat
	case string:
		return TypeString
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return TypeInteger
		}
		// An integer literal outside of int64 is not a FLOAT.
		if !strings.ContainsAny(x.String(), ".eE") {
			return TypeInvalid
		}
		if _, err := x.Float64(); err == nil {
			return TypeFloat
		}
		return TypeInvalid
	default:
		return TypeInvalid
	}
}
