package condition

import (
	"encoding/json"
	"math"
)

// MessageFromMap converts decoded JSON (or any map of Go scalars) to a Message.
// Numbers (all Go int/uint/float kinds and json.Number), strings and bools are
// kept. Null, arrays, objects and non-finite numbers are omitted, so a
// condition on such a field reports a missing field.
func MessageFromMap(fields map[string]any) Message {
	msg := make(Message, len(fields))
	for k, raw := range fields {
		if v, ok := ValueOf(raw); ok {
			msg[k] = v
		}
	}
	return msg
}

// ValueOf converts a Go scalar to a Value.
func ValueOf(raw any) (Value, bool) {
	switch x := raw.(type) {
	case Value:
		return x, x.Kind() != KindInvalid
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return Number(float64(x)), true
	case int8:
		return Number(float64(x)), true
	case int16:
		return Number(float64(x)), true
	case int32:
		return Number(float64(x)), true
	case int64:
		return Number(float64(x)), true
	case uint:
		return Number(float64(x)), true
	case uint8:
		return Number(float64(x)), true
	case uint16:
		return Number(float64(x)), true
	case uint32:
		return Number(float64(x)), true
	case uint64:
		return Number(float64(x)), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, false
		}
		return finite(f)
	case string:
		return Text(x), true
	case bool:
		return Bool(x), true
	default:
		return Value{}, false
	}
}

func finite(f float64) (Value, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, false
	}
	return Number(f), true
}
