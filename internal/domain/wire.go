package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON renders a Value as the native JSON scalar it tags, so wire
// payloads carry plain numbers/bools/strings rather than an envelope
// (spec.md §6 payloads show bare scalars in ObjectiveValues/VariableValues).
// A double with no fractional part is written with a trailing ".0" so that
// UnmarshalJSON decodes it back as a double rather than an int.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueKindInt:
		return json.Marshal(v.Int)
	case ValueKindDouble:
		b, err := json.Marshal(v.Dbl)
		if err != nil {
			return nil, err
		}
		if !bytes.ContainsAny(b, ".eE") {
			b = append(b, ".0"...)
		}
		return b, nil
	case ValueKindBool:
		return json.Marshal(v.Bool)
	case ValueKindString:
		return json.Marshal(v.Str)
	default:
		return nil, fmt.Errorf("value has no kind set")
	}
}

// UnmarshalJSON performs the type-directed coercion spec.md §6 requires
// of every metric/parameter assignment: integer -> signed long, float ->
// double, bool -> bool, string -> string, anything else is an error.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return fmt.Errorf("value is null or empty")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	default:
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("value %q is not a recognized scalar kind", string(trimmed))
		}
		if i, err := n.Int64(); err == nil {
			*v = IntValue(i)
			return nil
		}
		f, err := n.Float64()
		if err != nil {
			return err
		}
		*v = DoubleValue(f)
		return nil
	}
}
