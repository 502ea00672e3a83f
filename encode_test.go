package jsonwrap

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

type node struct {
	Name string `json:"name"`
	Next *node  `json:"next"`
}

type failingMarshaler struct{}

func (failingMarshaler) MarshalJSON() ([]byte, error) {
	return nil, errors.New("boom")
}

func TestEncode(t *testing.T) {
	ordered := NewMap()
	ordered.Set("b", IntValue(1))
	ordered.Set("a", ArrayValue(BoolValue(true), NullValue()))

	obj := NewObject()
	obj.Set("x", StringValue("y"))

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "zero float keeps fraction", input: 0.0, expected: "0.0"},
		{name: "negative zero float", input: math.Copysign(0, -1), expected: "-0.0"},
		{name: "zero int", input: 0, expected: "0"},
		{name: "whole float", input: 100.0, expected: "100.0"},
		{name: "fraction", input: 1.5, expected: "1.5"},
		{name: "large float uses exponent", input: 1e21, expected: "1.0e+21"},
		{name: "small float uses exponent", input: 1e-7, expected: "1.0e-7"},
		{name: "small float with mantissa", input: 1.25e-7, expected: "1.25e-7"},
		{name: "float32", input: float32(0.1), expected: "0.1"},
		{name: "slash not escaped", input: "foo/bar", expected: `"foo/bar"`},
		{name: "unicode literal", input: "æßðđŋħĸł", expected: `"æßðđŋħĸł"`},
		{name: "quotes and control characters", input: "a\"b\n", expected: `"a\"b\n"`},
		{name: "nil", input: nil, expected: "null"},
		{name: "nil slice", input: []int(nil), expected: "null"},
		{name: "int slice", input: []int{1, 2, 3}, expected: "[1,2,3]"},
		{name: "empty slice", input: []string{}, expected: "[]"},
		{name: "map keys sorted", input: map[string]any{"b": 1, "a": "x"}, expected: `{"a":"x","b":1}`},
		{name: "int keys sorted as text", input: map[int]string{10: "a", 2: "b"}, expected: `{"10":"a","2":"b"}`},
		{name: "empty map", input: map[string]int{}, expected: "{}"},
		{name: "struct", input: point{X: 1, Y: 2.5}, expected: `{"x":1.0,"y":2.5}`},
		{name: "struct pointer", input: &point{Label: "p"}, expected: `{"x":0.0,"y":0.0,"label":"p"}`},
		{name: "ordered map", input: ordered, expected: `{"b":1,"a":[true,null]}`},
		{name: "object", input: obj, expected: `{"x":"y"}`},
		{name: "empty object", input: NewObject(), expected: "{}"},
		{name: "value float", input: FloatValue(2), expected: "2.0"},
		{name: "empty array value", input: ArrayValue(), expected: "[]"},
		{name: "values nested in go map", input: map[string]any{"v": MapValue(ordered)}, expected: `{"v":{"b":1,"a":[true,null]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Encode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEncodePretty(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{
			name:     "array",
			input:    []int{1, 2, 3},
			expected: "[\n    1,\n    2,\n    3\n]",
		},
		{
			name:     "map",
			input:    map[string]string{"foo": "bar"},
			expected: "{\n    \"foo\": \"bar\"\n}",
		},
		{
			name:     "nested",
			input:    map[string]any{"a": []int{1}},
			expected: "{\n    \"a\": [\n        1\n    ]\n}",
		},
		{
			name:     "empty containers stay compact",
			input:    map[string]any{"a": []int{}, "b": map[string]int{}},
			expected: "{\n    \"a\": [],\n    \"b\": {}\n}",
		},
		{
			name:     "scalar",
			input:    1.0,
			expected: "1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EncodePretty(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEncode_ExtraFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		flags    []EncodeFlag
		expected string
	}{
		{name: "escape html", input: "<a&b>", flags: []EncodeFlag{EscapeHTML}, expected: `"\u003ca\u0026b\u003e"`},
		{name: "ignore invalid utf8", input: "a\xffb", flags: []EncodeFlag{InvalidUTF8Ignore}, expected: `"ab"`},
		{name: "substitute invalid utf8", input: "a\xffb", flags: []EncodeFlag{InvalidUTF8Substitute}, expected: "\"a\uFFFDb\""},
		{name: "pretty via flag", input: []int{1}, flags: []EncodeFlag{PrettyPrint}, expected: "[\n    1\n]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Encode(tt.input, tt.flags...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEncode_WithoutDefaults(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		flags    EncodeFlag
		expected string
	}{
		{name: "slash escaped", input: "a/b", flags: UnescapedUnicode, expected: `"a\/b"`},
		{name: "unicode escaped", input: "é", flags: UnescapedSlashes, expected: `"\u00e9"`},
		{name: "astral rune as surrogate pair", input: "😀", flags: UnescapedSlashes, expected: `"\ud83d\ude00"`},
		{name: "html escaped by hand", input: "<", flags: EscapeHTML, expected: `"\u003c"`},
		{name: "whole float without fraction", input: 1.0, flags: 0, expected: "1"},
		{name: "exponent without fraction", input: 1e21, flags: 0, expected: "1e+21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := encode(tt.input, tt.flags)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	cyclic := &node{Name: "a"}
	cyclic.Next = cyclic

	selfMap := map[string]any{}
	selfMap["self"] = selfMap

	selfSlice := make([]any, 1)
	selfSlice[0] = selfSlice

	selfOrdered := NewMap()
	selfOrdered.Set("self", MapValue(selfOrdered))

	tests := []struct {
		name    string
		input   any
		code    ErrorCode
		message string
	}{
		{name: "negative infinity", input: math.Log(0), code: CodeInfOrNaN, message: "Inf and NaN cannot be JSON encoded"},
		{name: "nan in slice", input: []float64{1, math.NaN()}, code: CodeInfOrNaN, message: "Inf and NaN cannot be JSON encoded"},
		{name: "infinite value", input: FloatValue(math.Inf(1)), code: CodeInfOrNaN, message: "Inf and NaN cannot be JSON encoded"},
		{name: "invalid utf8", input: "a\xffb", code: CodeUTF8, message: "Malformed UTF-8 characters, possibly incorrectly encoded"},
		{name: "invalid utf8 in key", input: map[string]int{"\xff": 1}, code: CodeUTF8, message: "Malformed UTF-8 characters, possibly incorrectly encoded"},
		{name: "pointer cycle", input: cyclic, code: CodeRecursion, message: "Recursion detected"},
		{name: "map cycle", input: selfMap, code: CodeRecursion, message: "Recursion detected"},
		{name: "slice cycle", input: selfSlice, code: CodeRecursion, message: "Recursion detected"},
		{name: "ordered map cycle", input: selfOrdered, code: CodeRecursion, message: "Recursion detected"},
		{name: "channel", input: make(chan int), code: CodeUnsupportedType, message: "Type is not supported: chan int"},
		{name: "func field", input: struct{ F func() }{}, code: CodeUnsupportedType, message: "Type is not supported: func()"},
		{name: "complex", input: complex(1, 2), code: CodeUnsupportedType, message: "Type is not supported: complex128"},
		{name: "marshaler failure", input: failingMarshaler{}, code: CodeUnsupportedType, message: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Encode(tt.input)
			require.Error(t, err)
			assert.Empty(t, result)

			var encErr *EncodeError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.code, encErr.Code)
			assert.Equal(t, tt.message, encErr.Message)
			assert.ErrorIs(t, err, tt.code)
		})
	}
}

type quoted struct {
	Name string `json:"name,string"`
}

func TestEncode_FlagsReachBorrowedStreams(t *testing.T) {
	result, err := Encode(quoted{Name: "<a>"}, EscapeHTML)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"\"\\u003ca\\u003e\""}`, result)

	_, err = Encode(quoted{Name: "a\xffb"})
	assert.ErrorIs(t, err, CodeUTF8)
}

func TestEncode_SharedReferenceIsNotRecursion(t *testing.T) {
	shared := []int{1}
	leaf := &node{Name: "leaf"}

	result, err := Encode(map[string]any{"a": shared, "b": shared, "c": leaf, "d": leaf})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1],"b":[1],"c":{"name":"leaf","next":null},"d":{"name":"leaf","next":null}}`, result)
}

func TestEncode_Depth(t *testing.T) {
	nest := func(levels int) any {
		var v any = []any{}
		for i := 1; i < levels; i++ {
			v = []any{v}
		}
		return v
	}

	_, err := Encode(nest(DefaultDepth))
	require.NoError(t, err)

	_, err = Encode(nest(DefaultDepth + 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, CodeDepth)

	value := ArrayValue()
	for i := 0; i < DefaultDepth; i++ {
		value = ArrayValue(value)
	}
	_, err = Encode(value)
	assert.ErrorIs(t, err, CodeDepth)
}

func TestAppendFloat(t *testing.T) {
	tests := []struct {
		input        float64
		bits         int
		zeroFraction bool
		expected     string
	}{
		{input: 3, bits: 64, zeroFraction: true, expected: "3.0"},
		{input: 3, bits: 64, zeroFraction: false, expected: "3"},
		{input: 0.000001, bits: 64, zeroFraction: true, expected: "0.000001"},
		{input: 1e-9, bits: 64, zeroFraction: true, expected: "1.0e-9"},
		{input: 1.5e300, bits: 64, zeroFraction: true, expected: "1.5e+300"},
		{input: 123456789, bits: 64, zeroFraction: true, expected: "123456789.0"},
		{input: float64(float32(3.4e38)), bits: 32, zeroFraction: true, expected: "3.4e+38"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(appendFloat(nil, tt.input, tt.bits, tt.zeroFraction)))
		})
	}
}
