// Package sqlval defines the value model shared by the translator, the
// result mapper, and the reference document store.
//
// Parameter values are constrained to what the producing query builder can
// bind: null, boolean, integer, float, and string. Object exists for one
// purpose only: the folded document payload of a translated INSERT.
package sqlval

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a sealed interface over the supported parameter types.
// Only Null, Bool, Int, Float, String, and Object implement it.
// The marker method prevents external implementations and enables
// exhaustive type switches in the translator and store.
type Value interface {
	sqlValue() // Sealed - only types in this package implement it
}

// Null represents an SQL NULL / JSON null.
// An explicit type keeps nil out of the Value domain.
type Null struct{}

func (Null) sqlValue() {}

// Bool represents a boolean parameter value.
type Bool bool

func (Bool) sqlValue() {}

// Int represents an integer parameter value. Always int64.
type Int int64

func (Int) sqlValue() {}

// Float represents a floating-point parameter value.
type Float float64

func (Float) sqlValue() {}

// String represents a string parameter value. Callers pre-serialize
// dates and binary data to strings before binding.
type String string

func (String) sqlValue() {}

// Object represents a document payload: field name to scalar value.
// Objects never nest - INSERT folds one flat column/value row.
type Object map[string]Value

func (Object) sqlValue() {}

// FromAny converts a Go value (as produced by the query builder, YAML
// decoding, or database/sql scanning) into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case float32:
		return Float(val), nil
	case string:
		return String(val), nil
	case []byte:
		return String(val), nil
	case json.Number:
		if !strings.ContainsAny(string(val), ".eE") {
			n, err := val.Int64()
			if err != nil {
				return nil, fmt.Errorf("number out of int64 range: %s", val)
			}
			return Int(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number: %s", val)
		}
		return Float(f), nil
	case Value:
		return val, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			fv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object field %q: %w", k, err)
			}
			obj[k] = fv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type: %T", v)
	}
}

// FromAnySlice converts an ordered parameter array into Values.
func FromAnySlice(vs []any) ([]Value, error) {
	out := make([]Value, len(vs))
	for i, v := range vs {
		val, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		out[i] = val
	}
	return out, nil
}

// ToAny converts a Value back into a plain Go value, suitable for
// database/sql binding or comparison against scanned rows.
func ToAny(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Object:
		m := make(map[string]any, len(val))
		for k, elem := range val {
			m[k] = ToAny(elem)
		}
		return m
	default:
		return nil
	}
}

// Equal reports whether two values are equal. Int and Float compare
// numerically across types, matching SQL comparison semantics.
func Equal(a, b Value) bool {
	if c, ok := Compare(a, b); ok {
		return c == 0
	}
	ao, aObj := a.(Object)
	bo, bObj := b.(Object)
	if aObj && bObj {
		if len(ao) != len(bo) {
			return false
		}
		for k, av := range ao {
			bv, ok := bo[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	_, aNull := a.(Null)
	_, bNull := b.(Null)
	if aNull || bNull {
		return aNull && bNull
	}
	if ab, ok := a.(Bool); ok {
		bb, ok := b.(Bool)
		return ok && ab == bb
	}
	return false
}

// Compare orders two values if they are comparable: both numeric or both
// strings. Returns -1/0/1 and true, or false when the pair has no defined
// ordering (null, bool, object, or mixed kinds).
func Compare(a, b Value) (int, bool) {
	af, aNum := numeric(a)
	bf, bNum := numeric(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aStr := a.(String)
	bs, bStr := b.(String)
	if aStr && bStr {
		return strings.Compare(string(as), string(bs)), true
	}
	return 0, false
}

func numeric(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	default:
		return 0, false
	}
}

// GoString renders a value for diagnostics.
func GoString(v Value) string {
	switch val := v.(type) {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case String:
		return strconv.Quote(string(val))
	case Object:
		b, err := MarshalCanonical(val)
		if err != nil {
			return fmt.Sprintf("%#v", val)
		}
		return string(b)
	default:
		return fmt.Sprintf("%#v", v)
	}
}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON implements json.Marshaler for Object with sorted keys.
func (obj Object) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}
