package jsonwrap

import (
	"iter"
	"maps"
	"slices"
)

// Map is an ordered string-keyed map. Keys are unique and keep the
// position of their first insertion. The zero Map is ready to use.
type Map struct {
	keys  []string
	vals  []Value
	index map[string]int
}

// NewMap returns an empty map with room for size entries
func NewMap(size ...int) *Map {
	n := 0
	if len(size) > 0 {
		n = size[0]
	}
	return &Map{
		keys:  make([]string, 0, n),
		vals:  make([]Value, 0, n),
		index: make(map[string]int, n),
	}
}

// Len returns the number of entries. A nil map has none.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.vals[i], true
}

// Has reports whether key is present
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// Delete removes key and reports whether it was present
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.keys = slices.Delete(m.keys, i, i+1)
	m.vals = slices.Delete(m.vals, i, i+1)
	delete(m.index, key)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

// Keys returns a copy of the keys in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over the entries in insertion order
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// Equal reports whether both maps hold equal values under the same keys
// in the same order.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i := 0; i < m.Len(); i++ {
		if m.keys[i] != other.keys[i] || !m.vals[i].Equal(other.vals[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler
func (m *Map) MarshalJSON() ([]byte, error) {
	return MapValue(m).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. The input must be a JSON object.
func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := DecodeArray(string(data))
	if err != nil {
		return err
	}
	decoded, ok := v.Map()
	if !ok {
		return &DecodeError{Code: CodeStateMismatch, Message: "expected a JSON object, got " + v.Kind().String()}
	}
	*m = *decoded
	return nil
}

// Object is an attribute bag: one property per JSON object key. It is the
// result of decoding a JSON object in object mode.
type Object struct {
	props Map
}

// NewObject returns an object without properties
func NewObject() *Object {
	return &Object{}
}

// Len returns the number of properties
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.props.Len()
}

// Get returns the named property
func (o *Object) Get(name string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	return o.props.Get(name)
}

// Has reports whether the property exists
func (o *Object) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// Set assigns a property
func (o *Object) Set(name string, v Value) {
	o.props.Set(name, v)
}

// Delete removes a property and reports whether it existed
func (o *Object) Delete(name string) bool {
	if o == nil {
		return false
	}
	return o.props.Delete(name)
}

// Names returns the property names in assignment order
func (o *Object) Names() []string {
	if o == nil {
		return nil
	}
	return o.props.Keys()
}

// All iterates over the properties in assignment order
func (o *Object) All() iter.Seq2[string, Value] {
	if o == nil {
		return (*Map)(nil).All()
	}
	return o.props.All()
}

// Equal reports whether both objects have the same properties with equal
// values, in any order.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	for name, v := range o.All() {
		ov, ok := other.Get(name)
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler
func (o *Object) MarshalJSON() ([]byte, error) {
	return ObjectValue(o).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. The input must be a JSON object.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := DecodeObject(string(data))
	if err != nil {
		return err
	}
	decoded, ok := v.Object()
	if !ok {
		return &DecodeError{Code: CodeStateMismatch, Message: "expected a JSON object, got " + v.Kind().String()}
	}
	*o = *decoded
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
