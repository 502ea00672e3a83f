// Package jsonwrap is a thin facade over a JSON codec. It encodes Go values
// with a fixed set of default flags and decodes text either into ordered
// maps or into attribute-bag objects. Every failure is reported as an
// *EncodeError or *DecodeError carrying a numeric ErrorCode.
//
//	text, err := jsonwrap.Encode(map[string]any{"path": "a/b", "ratio": 1.0})
//	// {"path":"a/b","ratio":1.0}
//
//	v, err := jsonwrap.DecodeArray(`{"b":1,"a":[true,null]}`)
//	m, _ := v.Map()
//	m.Keys() // [b a]
//
// All functions are safe for concurrent use.
package jsonwrap

// Encode returns the compact JSON text of v. DefaultEncodeFlags always
// apply; flags are added to them.
func Encode(v any, flags ...EncodeFlag) (string, error) {
	return encode(v, DefaultEncodeFlags|combine(flags))
}

// EncodePretty is Encode with PrettyPrint added
func EncodePretty(v any, flags ...EncodeFlag) (string, error) {
	return encode(v, DefaultEncodeFlags|PrettyPrint|combine(flags))
}

// DecodeArray parses text in map mode: JSON objects become *Map values
func DecodeArray(text string, opts ...DecodeOption) (Value, error) {
	o := buildDecodeOptions(opts)
	return decode(text, true, o.depth, o.flags)
}

// DecodeObject parses text in object mode: JSON objects become *Object
// values, unless ObjectAsArray is given.
func DecodeObject(text string, opts ...DecodeOption) (Value, error) {
	o := buildDecodeOptions(opts)
	return decode(text, false, o.depth, o.flags)
}

// Validate reports whether text decodes, without keeping the result
func Validate(text string, opts ...DecodeOption) error {
	_, err := DecodeArray(text, opts...)
	return err
}

func combine(flags []EncodeFlag) EncodeFlag {
	var out EncodeFlag
	for _, f := range flags {
		out |= f
	}
	return out
}
