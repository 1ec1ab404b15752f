package types

import (
	"math"
	"strings"
)

// ValueType names the kind of value a parameter accepts.
type ValueType string

// Parameter value types.
const (
	ValueTypeFloat   ValueType = "float"
	ValueTypeInteger ValueType = "integer"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeText    ValueType = "text"
	ValueTypeList    ValueType = "list"
)

// validValueTypes is the set of recognized value types.
var validValueTypes = map[ValueType]bool{
	ValueTypeFloat:   true,
	ValueTypeInteger: true,
	ValueTypeBoolean: true,
	ValueTypeText:    true,
	ValueTypeList:    true,
}

// orderedValueTypes are the value types that accept bounds.
var orderedValueTypes = map[ValueType]bool{
	ValueTypeFloat:   true,
	ValueTypeInteger: true,
	ValueTypeText:    true,
}

// IsValid reports whether vt is a recognized value type.
func (vt ValueType) IsValid() bool {
	return validValueTypes[vt]
}

// IsOrdered reports whether values of this type can be compared against bounds.
func (vt ValueType) IsOrdered() bool {
	return orderedValueTypes[vt]
}

// Normalize converts v to the canonical Go representation for vt:
// float64, int64, bool, string or []string. Floats accept float32 and
// float64; integers accept every signed width. Unsigned integers are
// rejected since uint64 does not fit int64. The second return is false when
// v does not belong to vt. Slices are copied so callers cannot alias stored
// values.
func (vt ValueType) Normalize(v any) (any, bool) {
	switch vt {
	case ValueTypeFloat:
		switch x := v.(type) {
		case float64:
			return x, true
		case float32:
			return float64(x), true
		}
	case ValueTypeInteger:
		switch x := v.(type) {
		case int64:
			return x, true
		case int:
			return int64(x), true
		case int32:
			return int64(x), true
		case int16:
			return int64(x), true
		case int8:
			return int64(x), true
		}
	case ValueTypeBoolean:
		if x, ok := v.(bool); ok {
			return x, true
		}
	case ValueTypeText:
		if x, ok := v.(string); ok {
			return x, true
		}
	case ValueTypeList:
		if x, ok := v.([]string); ok {
			return append([]string{}, x...), true
		}
	}
	return nil, false
}

// Decode reads one stored value of type vt through decode, which unmarshals
// into the pointer it is given. Used when loading persisted artifacts so that
// every format yields the same canonical types.
func (vt ValueType) Decode(decode func(ptr any) error) (any, error) {
	switch vt {
	case ValueTypeFloat:
		var f float64
		err := decode(&f)
		return f, err
	case ValueTypeInteger:
		var i int64
		err := decode(&i)
		return i, err
	case ValueTypeBoolean:
		var b bool
		err := decode(&b)
		return b, err
	case ValueTypeText:
		var s string
		err := decode(&s)
		return s, err
	case ValueTypeList:
		var l []string
		err := decode(&l)
		if l == nil {
			l = []string{}
		}
		return l, err
	default:
		return nil, ErrInvalidSchema
	}
}

// copyValue returns v with slices duplicated.
func copyValue(v any) any {
	if l, ok := v.([]string); ok {
		return append([]string{}, l...)
	}
	return v
}

// nonFinite reports whether v is a float NaN or infinity. Neither survives
// a JSON artifact.
func nonFinite(v any) bool {
	f, ok := v.(float64)
	return ok && (math.IsNaN(f) || math.IsInf(f, 0))
}

// compareOrdered compares two normalized values of the same ordered type.
// It returns -1, 0 or 1.
func compareOrdered(a, b any) int {
	switch x := a.(type) {
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case int64:
		y := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	}
	return 0
}
