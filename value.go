package jsonwrap

import (
	"fmt"
	"math"
	"reflect"
)

// Kind identifies the JSON type held by a Value
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMap
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a decoded JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	m    *Map
	o    *Object
}

// NullValue returns the JSON null
func NullValue() Value { return Value{} }

// BoolValue wraps a bool
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue wraps an integer
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue wraps a float. Non-finite floats are accepted here but fail to encode.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// StringValue wraps a string
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ArrayValue wraps a sequence of values. A nil slice becomes an empty array.
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// MapValue wraps an ordered map. A nil map becomes an empty one.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// ObjectValue wraps an object. A nil object becomes an empty one.
func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, o: o}
}

// Kind returns the JSON type of v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Text returns the string payload. It is named Text so that String can
// satisfy fmt.Stringer.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindString }

func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

func (v Value) Map() (*Map, bool) { return v.m, v.kind == KindMap }

func (v Value) Object() (*Object, bool) { return v.o, v.kind == KindObject }

// Number returns the numeric payload of an Int or Float value as float64
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Len returns the number of elements of an array, map or object, and 0 otherwise
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindMap:
		return v.m.Len()
	case KindObject:
		return v.o.Len()
	}
	return 0
}

// Equal reports deep equality. Maps compare in order, objects ignore
// property order, and Int never equals Float.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(other.m)
	case KindObject:
		return v.o.Equal(other.o)
	}
	return false
}

// Interface lowers v to plain Go values: nil, bool, int64, float64, string,
// []any and map[string]any. Key order of maps and objects is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		for k, item := range v.m.All() {
			out[k] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.o.Len())
		for k, item := range v.o.All() {
			out[k] = item.Interface()
		}
		return out
	}
	return nil
}

// String returns the compact encoding of v, or a placeholder when v
// cannot be encoded.
func (v Value) String() string {
	text, err := Encode(v)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return text
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	text, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// UnmarshalJSON implements json.Unmarshaler, decoding in map mode
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeArray(string(data))
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// ValueOf lifts a plain Go value into a Value. It accepts the types
// produced by Interface plus every integer, unsigned and float type,
// []Value, *Map, *Object and Value itself.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return NullValue(), nil
		}
		return *t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return uintValue(uint64(t)), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		return uintValue(t), nil
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case []Value:
		return ArrayValue(t...), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			lifted, err := ValueOf(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = lifted
		}
		return ArrayValue(items...), nil
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(t) {
			lifted, err := ValueOf(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, lifted)
		}
		return MapValue(m), nil
	case *Map:
		return MapValue(t), nil
	case *Object:
		return ObjectValue(t), nil
	}
	return Value{}, &EncodeError{
		Code:    CodeUnsupportedType,
		Message: fmt.Sprintf("%s: %s", CodeUnsupportedType.Error(), reflect.TypeOf(x)),
	}
}

func uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return FloatValue(float64(u))
	}
	return IntValue(int64(u))
}
