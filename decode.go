package jsonwrap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
)

var decodeAPI = jsoniter.Config{}.Froze()

// decode parses text into a Value. asMap selects map mode; otherwise JSON
// objects become *Object unless ObjectAsArray is set.
func decode(text string, asMap bool, depth int, flags DecodeFlag) (Value, error) {
	if depth < 1 {
		return Value{}, &DecodeError{Code: CodeDepth, Message: "Depth must be greater than zero"}
	}
	if depth > MaxDepth {
		return Value{}, &DecodeError{Code: CodeDepth, Message: fmt.Sprintf("Depth must be lower than %d", MaxDepth)}
	}

	data := []byte(text)
	if !utf8.Valid(data) {
		switch {
		case flags.Has(DecodeInvalidUTF8Ignore):
			data = bytes.ToValidUTF8(data, nil)
		case flags.Has(DecodeInvalidUTF8Substitute):
			data = bytes.ToValidUTF8(data, []byte("\uFFFD"))
		default:
			return Value{}, newDecodeError(CodeUTF8, nil)
		}
	}
	if !gjson.ValidBytes(data) {
		if hasRawControl(data) {
			return Value{}, newDecodeError(CodeCtrlChar, nil)
		}
		return Value{}, newDecodeError(CodeSyntax, nil)
	}
	if hasLoneSurrogate(data) {
		return Value{}, newDecodeError(CodeUTF16, nil)
	}

	iter := decodeAPI.BorrowIterator(data)
	defer decodeAPI.ReturnIterator(iter)
	w := &walker{
		iter:     iter,
		objects:  !asMap && !flags.Has(ObjectAsArray),
		maxDepth: depth,
		flags:    flags,
	}
	v := w.read()
	if w.err != nil {
		return Value{}, w.err
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return Value{}, classify(iter.Error)
	}
	return v, nil
}

func classify(err error) *DecodeError {
	msg := err.Error()
	if strings.Contains(msg, "control character") {
		return newDecodeError(CodeCtrlChar, err)
	}
	return newDecodeError(CodeSyntax, err)
}

// walker builds a Value from input that already passed the grammar check
type walker struct {
	iter     *jsoniter.Iterator
	objects  bool
	maxDepth int
	flags    DecodeFlag
	depth    int
	err      *DecodeError
}

func (w *walker) ok() bool {
	return w.err == nil && (w.iter.Error == nil || w.iter.Error == io.EOF)
}

func (w *walker) read() Value {
	switch w.iter.WhatIsNext() {
	case jsoniter.NilValue:
		w.iter.ReadNil()
		return NullValue()
	case jsoniter.BoolValue:
		return BoolValue(w.iter.ReadBool())
	case jsoniter.StringValue:
		return StringValue(w.iter.ReadString())
	case jsoniter.NumberValue:
		return w.number(string(w.iter.ReadNumber()))
	case jsoniter.ArrayValue:
		return w.array()
	case jsoniter.ObjectValue:
		return w.object()
	}
	w.iter.ReportError("decode", "unexpected token")
	return Value{}
}

func (w *walker) number(text string) Value {
	if strings.ContainsAny(text, ".eE") {
		// overflow yields ±Inf, which is what the grammar allows
		f, err := strconv.ParseFloat(text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			w.err = newDecodeError(CodeSyntax, err)
		}
		return FloatValue(f)
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return IntValue(i)
	}
	if !errors.Is(err, strconv.ErrRange) {
		w.err = newDecodeError(CodeSyntax, err)
		return Value{}
	}
	if w.flags.Has(BigIntAsString) {
		return StringValue(text)
	}
	f, _ := strconv.ParseFloat(text, 64)
	return FloatValue(f)
}

func (w *walker) enter() bool {
	w.depth++
	if w.depth > w.maxDepth {
		w.err = newDecodeError(CodeDepth, nil)
		return false
	}
	return true
}

// array and object use the plain ReadArray/ReadObject calls; the callback
// variants enforce the codec's own nesting cap of 10000 on top of maxDepth.
func (w *walker) array() Value {
	if !w.enter() {
		return Value{}
	}
	defer func() { w.depth-- }()
	items := []Value{}
	for w.iter.ReadArray() {
		items = append(items, w.read())
		if !w.ok() {
			break
		}
	}
	return ArrayValue(items...)
}

func (w *walker) object() Value {
	if !w.enter() {
		return Value{}
	}
	defer func() { w.depth-- }()
	m := NewMap()
	for w.ok() {
		key := w.iter.ReadObject()
		// "" is both the end marker and a legal key; a key is followed by a value
		if key == "" && w.iter.WhatIsNext() == jsoniter.InvalidValue {
			break
		}
		if w.objects && strings.HasPrefix(key, "\x00") {
			w.err = newDecodeError(CodeInvalidPropertyName, nil)
			break
		}
		m.Set(key, w.read())
	}
	if w.objects {
		return ObjectValue(&Object{props: *m})
	}
	return MapValue(m)
}

// hasRawControl reports whether a string literal in data holds an
// unescaped control character.
func hasRawControl(data []byte) bool {
	inString, escaped := false, false
	for _, c := range data {
		switch {
		case !inString:
			inString = c == '"'
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = false
		case c < 0x20:
			return true
		}
	}
	return false
}

// hasLoneSurrogate reports whether a \u escape names half of a UTF-16
// surrogate pair without its partner. data must be valid JSON.
func hasLoneSurrogate(data []byte) bool {
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if !inString {
			inString = c == '"'
			continue
		}
		switch c {
		case '"':
			inString = false
		case '\\':
			if data[i+1] != 'u' {
				i++
				continue
			}
			r := hex4(data[i+2 : i+6])
			i += 5
			if !utf16.IsSurrogate(r) {
				continue
			}
			if r >= 0xDC00 {
				return true
			}
			if i+6 >= len(data) || data[i+1] != '\\' || data[i+2] != 'u' {
				return true
			}
			lo := hex4(data[i+3 : i+7])
			if lo < 0xDC00 || lo > 0xDFFF {
				return true
			}
			i += 6
		}
	}
	return false
}

func hex4(b []byte) rune {
	var r rune
	for _, c := range b {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			r |= rune(c - 'A' + 10)
		}
	}
	return r
}
