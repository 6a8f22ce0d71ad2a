package domain

import (
	"fmt"

	"optimus-coordinator/internal/common"
)

// ValueKind is the tag of a Value sum type.
type ValueKind string

const (
	ValueKindInt    ValueKind = "int"
	ValueKindDouble ValueKind = "double"
	ValueKindBool   ValueKind = "bool"
	ValueKindString ValueKind = "string"
)

// Value is the tagged scalar carried on parameters, data files, and
// solution variables. Exactly one of the typed fields is meaningful,
// selected by Kind.
type Value struct {
	Kind ValueKind
	Int  int64
	Dbl  float64
	Bool bool
	Str  string
}

func IntValue(v int64) Value    { return Value{Kind: ValueKindInt, Int: v} }
func DoubleValue(v float64) Value { return Value{Kind: ValueKindDouble, Dbl: v} }
func BoolValue(v bool) Value    { return Value{Kind: ValueKindBool, Bool: v} }
func StringValue(v string) Value { return Value{Kind: ValueKindString, Str: v} }

// AsFloat64 coerces the value to its engine-native numeric representation.
// Bool coerces to 0/1, int widens to float64; string is never numeric.
func (v Value) AsFloat64() (float64, error) {
	switch v.Kind {
	case ValueKindInt:
		return float64(v.Int), nil
	case ValueKindDouble:
		return v.Dbl, nil
	case ValueKindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, common.UnsupportedValueKindError("value kind has no numeric coercion", v)
	}
}

// AsString renders the value for engines whose native parameter type is
// textual (categorical parameters, labels).
func (v Value) AsString() (string, error) {
	switch v.Kind {
	case ValueKindString:
		return v.Str, nil
	case ValueKindInt:
		return fmt.Sprintf("%d", v.Int), nil
	case ValueKindDouble:
		return fmt.Sprintf("%g", v.Dbl), nil
	case ValueKindBool:
		return fmt.Sprintf("%t", v.Bool), nil
	default:
		return "", common.UnsupportedValueKindError("unknown value kind", v)
	}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueKindInt:
		return fmt.Sprintf("int(%d)", v.Int)
	case ValueKindDouble:
		return fmt.Sprintf("double(%g)", v.Dbl)
	case ValueKindBool:
		return fmt.Sprintf("bool(%t)", v.Bool)
	case ValueKindString:
		return fmt.Sprintf("string(%q)", v.Str)
	default:
		return "value(undefined)"
	}
}

// ValidateKind rejects any kind outside the four the coordination core
// understands, per spec.md §7 UnsupportedValueKind.
func ValidateKind(k ValueKind) error {
	switch k {
	case ValueKindInt, ValueKindDouble, ValueKindBool, ValueKindString:
		return nil
	default:
		return common.UnsupportedValueKindError("value kind not recognized", k)
	}
}
