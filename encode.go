package jsonwrap

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

var (
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	valueType         = reflect.TypeOf(Value{})
	mapType           = reflect.TypeOf(Map{})
	objectType        = reflect.TypeOf(Object{})
	stdNumberType     = reflect.TypeOf(json.Number(""))
	iterNumberType    = reflect.TypeOf(jsoniter.Number(""))
)

// apis holds one frozen codec configuration per flag set
var apis sync.Map

func apiFor(flags EncodeFlag) jsoniter.API {
	if api, ok := apis.Load(flags); ok {
		return api.(jsoniter.API)
	}
	cfg := jsoniter.Config{SortMapKeys: true}
	if flags.Has(PrettyPrint) {
		cfg.IndentionStep = 4
	}
	api := cfg.Froze()
	api.RegisterExtension(&codecExtension{})
	actual, _ := apis.LoadOrStore(flags, api)
	return actual.(jsoniter.API)
}

// encode writes v with exactly the given flags. A failed encode never
// returns partial output.
func encode(v any, flags EncodeFlag) (string, error) {
	st := &encodeState{flags: flags, maxDepth: DefaultDepth}
	stream := jsoniter.NewStream(apiFor(flags), nil, 512)
	stream.Attachment = st
	stream.WriteVal(v)
	if st.err != nil {
		return "", st.err
	}
	if stream.Error != nil {
		return "", newEncodeError(CodeUnsupportedType, stream.Error)
	}
	return string(stream.Buffer()), nil
}

type visit struct {
	ptr   unsafe.Pointer
	rtype uintptr
	n     int
}

// encodeState travels with the stream in its Attachment. It keeps the
// first typed failure because the codec's container encoders flatten
// stream errors into plain strings.
type encodeState struct {
	flags    EncodeFlag
	maxDepth int
	depth    int
	active   map[visit]struct{}
	err      *EncodeError
}

// stateOf returns the state encode attached. Streams the codec borrows
// internally for map keys and ",string" fields copy the Attachment.
func stateOf(stream *jsoniter.Stream) *encodeState {
	return stream.Attachment.(*encodeState)
}

func (st *encodeState) failed() bool {
	return st.err != nil
}

func (st *encodeState) fail(stream *jsoniter.Stream, err *EncodeError) {
	if st.err == nil {
		st.err = err
	}
	stream.Error = st.err
}

func (st *encodeState) descend(stream *jsoniter.Stream) bool {
	st.depth++
	if st.depth > st.maxDepth {
		st.fail(stream, newEncodeError(CodeDepth, nil))
		return false
	}
	return true
}

func (st *encodeState) ascend() {
	st.depth--
}

// mark registers ref as being written. Seeing it again before unmark
// means the value contains itself.
func (st *encodeState) mark(stream *jsoniter.Stream, ref visit) bool {
	if st.active == nil {
		st.active = make(map[visit]struct{})
	}
	if _, ok := st.active[ref]; ok {
		st.fail(stream, newEncodeError(CodeRecursion, nil))
		return false
	}
	st.active[ref] = struct{}{}
	return true
}

func (st *encodeState) unmark(ref visit) {
	delete(st.active, ref)
}

type codecExtension struct {
	jsoniter.DummyExtension
}

func (ext *codecExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	t := typ.Type1()
	switch t {
	case valueType:
		return &valueEncoder{}
	case reflect.PointerTo(valueType):
		return &valueEncoder{indirect: true}
	case mapType:
		return &entriesEncoder{}
	case reflect.PointerTo(mapType):
		return &entriesEncoder{indirect: true}
	case objectType:
		return &entriesEncoder{object: true}
	case reflect.PointerTo(objectType):
		return &entriesEncoder{object: true, indirect: true}
	case stdNumberType, iterNumberType:
		return nil
	}
	if implementsMarshaler(t) {
		return nil
	}
	switch t.Kind() {
	case reflect.Float32:
		return &floatEncoder{bits: 32}
	case reflect.Float64:
		return &floatEncoder{bits: 64}
	case reflect.String:
		return &stringEncoder{}
	case reflect.Map:
		if !supportedKey(t.Key()) {
			return &unsupportedEncoder{typ: t}
		}
		return &mapEncoder{typ: typ}
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return &unsupportedEncoder{typ: t}
	}
	return nil
}

func (ext *codecExtension) DecorateEncoder(typ reflect2.Type, encoder jsoniter.ValEncoder) jsoniter.ValEncoder {
	t := typ.Type1()
	switch t.Kind() {
	case reflect.Ptr:
		switch t.Elem() {
		case valueType, mapType, objectType:
			return encoder
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return encoder
		}
	case reflect.Array, reflect.Struct:
		switch t {
		case valueType, mapType, objectType:
			return encoder
		}
	default:
		return encoder
	}
	if t.Kind() != reflect.Ptr && implementsMarshaler(t) {
		return encoder
	}
	return &guardEncoder{typ: typ, kind: t.Kind(), inner: encoder}
}

func implementsMarshaler(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(marshalerType) || t.Implements(textMarshalerType) ||
		pt.Implements(marshalerType) || pt.Implements(textMarshalerType)
}

// guardEncoder bounds nesting and detects self-referencing pointers and
// slices around the codec's own container encoders.
type guardEncoder struct {
	typ   reflect2.Type
	kind  reflect.Kind
	inner jsoniter.ValEncoder
}

func (e *guardEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return e.inner.IsEmpty(ptr)
}

func (e *guardEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	st := stateOf(stream)
	if st.failed() {
		return
	}
	switch e.kind {
	case reflect.Ptr:
		p := *(*unsafe.Pointer)(ptr)
		if p == nil {
			e.inner.Encode(ptr, stream)
			return
		}
		ref := visit{ptr: p, rtype: e.typ.RType()}
		if !st.mark(stream, ref) {
			return
		}
		defer st.unmark(ref)
	case reflect.Slice:
		sliceType := e.typ.(reflect2.SliceType)
		if sliceType.UnsafeIsNil(ptr) {
			e.inner.Encode(ptr, stream)
			return
		}
		if n := sliceType.UnsafeLengthOf(ptr); n > 0 {
			ref := visit{ptr: sliceType.UnsafeGetIndex(ptr, 0), rtype: e.typ.RType(), n: n}
			if !st.mark(stream, ref) {
				return
			}
			defer st.unmark(ref)
		}
		if !st.descend(stream) {
			return
		}
		defer st.ascend()
	default:
		if !st.descend(stream) {
			return
		}
		defer st.ascend()
	}
	e.inner.Encode(ptr, stream)
}

type floatEncoder struct {
	bits int
}

func (e *floatEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	if e.bits == 32 {
		return *(*float32)(ptr) == 0
	}
	return *(*float64)(ptr) == 0
}

func (e *floatEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	if e.bits == 32 {
		writeFloat(stream, float64(*(*float32)(ptr)), 32)
		return
	}
	writeFloat(stream, *(*float64)(ptr), 64)
}

type stringEncoder struct{}

func (e *stringEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return len(*(*string)(ptr)) == 0
}

func (e *stringEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	writeString(stream, *(*string)(ptr))
}

type unsupportedEncoder struct {
	typ reflect.Type
}

func (e *unsupportedEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return false
}

func (e *unsupportedEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stateOf(stream).fail(stream, &EncodeError{
		Code:    CodeUnsupportedType,
		Message: fmt.Sprintf("%s: %s", CodeUnsupportedType.Error(), e.typ),
	})
}

func supportedKey(t reflect.Type) bool {
	if t.Kind() == reflect.String || t.Implements(textMarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func keyName(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		if k.Kind() == reflect.Ptr && k.IsNil() {
			return "", nil
		}
		b, err := tm.MarshalText()
		return string(b), err
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("unsupported map key type %s", k.Type())
}

// mapEncoder writes Go maps with sorted keys. The codec's sorted map
// encoder loses indentation for nested values, so maps are written here.
type mapEncoder struct {
	typ reflect2.Type
}

type mapEntry struct {
	key string
	val reflect.Value
}

func (e *mapEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return reflect.ValueOf(e.typ.UnsafeIndirect(ptr)).Len() == 0
}

func (e *mapEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	st := stateOf(stream)
	if st.failed() {
		return
	}
	rv := reflect.ValueOf(e.typ.UnsafeIndirect(ptr))
	if rv.IsNil() {
		stream.WriteNil()
		return
	}
	ref := visit{ptr: rv.UnsafePointer(), rtype: e.typ.RType()}
	if !st.mark(stream, ref) {
		return
	}
	defer st.unmark(ref)
	if !st.descend(stream) {
		return
	}
	defer st.ascend()
	if rv.Len() == 0 {
		stream.WriteEmptyObject()
		return
	}

	entries := make([]mapEntry, 0, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		key, err := keyName(it.Key())
		if err != nil {
			st.fail(stream, &EncodeError{Code: CodeUnsupportedType, Message: err.Error(), Err: err})
			return
		}
		entries = append(entries, mapEntry{key: key, val: it.Value()})
	}
	slices.SortFunc(entries, func(a, b mapEntry) int {
		return strings.Compare(a.key, b.key)
	})

	stream.WriteObjectStart()
	for i, entry := range entries {
		if i > 0 {
			stream.WriteMore()
		}
		writeKey(stream, entry.key)
		stream.WriteVal(entry.val.Interface())
		if st.failed() {
			return
		}
	}
	stream.WriteObjectEnd()
}

type valueEncoder struct {
	indirect bool
}

func (e *valueEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	if e.indirect {
		return *(**Value)(ptr) == nil
	}
	return (*Value)(ptr).IsNull()
}

func (e *valueEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	if e.indirect {
		v := *(**Value)(ptr)
		if v == nil {
			stream.WriteNil()
			return
		}
		writeValue(stream, *v)
		return
	}
	writeValue(stream, *(*Value)(ptr))
}

// entriesEncoder writes a Map or an Object, keeping insertion order
type entriesEncoder struct {
	object   bool
	indirect bool
}

func (e *entriesEncoder) entries(ptr unsafe.Pointer) (*Map, bool) {
	if e.indirect {
		ptr = *(*unsafe.Pointer)(ptr)
		if ptr == nil {
			return nil, false
		}
	}
	if e.object {
		return &(*Object)(ptr).props, true
	}
	return (*Map)(ptr), true
}

func (e *entriesEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	m, ok := e.entries(ptr)
	return !ok || m.Len() == 0
}

func (e *entriesEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	m, ok := e.entries(ptr)
	if !ok {
		stream.WriteNil()
		return
	}
	writeEntries(stream, m)
}

func writeValue(stream *jsoniter.Stream, v Value) {
	st := stateOf(stream)
	if st.failed() {
		return
	}
	switch v.kind {
	case KindNull:
		stream.WriteNil()
	case KindBool:
		stream.WriteBool(v.b)
	case KindInt:
		stream.WriteInt64(v.i)
	case KindFloat:
		writeFloat(stream, v.f, 64)
	case KindString:
		writeString(stream, v.s)
	case KindArray:
		writeArray(stream, v.arr)
	case KindMap:
		writeEntries(stream, v.m)
	case KindObject:
		var m *Map
		if v.o != nil {
			m = &v.o.props
		}
		writeEntries(stream, m)
	}
}

func writeArray(stream *jsoniter.Stream, items []Value) {
	st := stateOf(stream)
	if len(items) > 0 {
		ref := visit{ptr: unsafe.Pointer(&items[0]), n: len(items)}
		if !st.mark(stream, ref) {
			return
		}
		defer st.unmark(ref)
	}
	if !st.descend(stream) {
		return
	}
	defer st.ascend()
	if len(items) == 0 {
		stream.WriteEmptyArray()
		return
	}
	stream.WriteArrayStart()
	for i, item := range items {
		if i > 0 {
			stream.WriteMore()
		}
		writeValue(stream, item)
		if st.failed() {
			return
		}
	}
	stream.WriteArrayEnd()
}

func writeEntries(stream *jsoniter.Stream, m *Map) {
	st := stateOf(stream)
	if m != nil {
		ref := visit{ptr: unsafe.Pointer(m)}
		if !st.mark(stream, ref) {
			return
		}
		defer st.unmark(ref)
	}
	if !st.descend(stream) {
		return
	}
	defer st.ascend()
	if m.Len() == 0 {
		stream.WriteEmptyObject()
		return
	}
	stream.WriteObjectStart()
	i := 0
	for key, v := range m.All() {
		if i > 0 {
			stream.WriteMore()
		}
		writeKey(stream, key)
		writeValue(stream, v)
		if st.failed() {
			return
		}
		i++
	}
	stream.WriteObjectEnd()
}

func writeKey(stream *jsoniter.Stream, key string) {
	writeString(stream, key)
	if stateOf(stream).flags.Has(PrettyPrint) {
		stream.WriteRaw(": ")
	} else {
		stream.WriteRaw(":")
	}
}

func writeFloat(stream *jsoniter.Stream, f float64, bits int) {
	st := stateOf(stream)
	if st.failed() {
		return
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		st.fail(stream, newEncodeError(CodeInfOrNaN, nil))
		return
	}
	stream.SetBuffer(appendFloat(stream.Buffer(), f, bits, st.flags.Has(PreserveZeroFraction)))
}

// appendFloat formats f in the shortest form that round-trips, switching
// to exponent notation outside [1e-6, 1e21). With zeroFraction set, a
// float that prints like an integer gets ".0" in its mantissa.
func appendFloat(dst []byte, f float64, bits int, zeroFraction bool) []byte {
	start := len(dst)
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e21) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e21) {
			format = 'e'
		}
	}
	dst = strconv.AppendFloat(dst, f, format, -1, bits)
	if format == 'e' {
		// e-09 to e-9
		n := len(dst)
		if n-start >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	if !zeroFraction {
		return dst
	}
	num := dst[start:]
	if slices.Contains(num, '.') {
		return dst
	}
	exp := slices.Index(num, 'e')
	if exp < 0 {
		return append(dst, '.', '0')
	}
	at := start + exp
	return slices.Insert(dst, at, '.', '0')
}

func writeString(stream *jsoniter.Stream, s string) {
	st := stateOf(stream)
	if st.failed() {
		return
	}
	if !utf8.ValidString(s) {
		switch {
		case st.flags.Has(InvalidUTF8Ignore):
			s = strings.ToValidUTF8(s, "")
		case st.flags.Has(InvalidUTF8Substitute):
			s = strings.ToValidUTF8(s, "\uFFFD")
		default:
			st.fail(stream, newEncodeError(CodeUTF8, nil))
			return
		}
	}
	if st.flags.Has(UnescapedUnicode | UnescapedSlashes) {
		if st.flags.Has(EscapeHTML) {
			stream.WriteStringWithHTMLEscaped(s)
		} else {
			stream.WriteString(s)
		}
		return
	}
	stream.SetBuffer(appendEscaped(stream.Buffer(), s, st.flags))
}

const hexDigits = "0123456789abcdef"

func appendUnicodeEscape(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigits[r>>12&0xf], hexDigits[r>>8&0xf], hexDigits[r>>4&0xf], hexDigits[r&0xf])
}

// appendEscaped quotes s for the flag sets the codec's writers cannot
// express: escaped slashes or \u escapes for every non-ASCII character.
func appendEscaped(dst []byte, s string, flags EncodeFlag) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch {
		case r == '"':
			dst = append(dst, '\\', '"')
		case r == '\\':
			dst = append(dst, '\\', '\\')
		case r == '\n':
			dst = append(dst, '\\', 'n')
		case r == '\r':
			dst = append(dst, '\\', 'r')
		case r == '\t':
			dst = append(dst, '\\', 't')
		case r == '\b':
			dst = append(dst, '\\', 'b')
		case r == '\f':
			dst = append(dst, '\\', 'f')
		case r < 0x20:
			dst = appendUnicodeEscape(dst, r)
		case r == '/' && !flags.Has(UnescapedSlashes):
			dst = append(dst, '\\', '/')
		case (r == '<' || r == '>' || r == '&') && flags.Has(EscapeHTML):
			dst = appendUnicodeEscape(dst, r)
		case r >= utf8.RuneSelf && !flags.Has(UnescapedUnicode):
			if r > 0xFFFF {
				hi, lo := utf16.EncodeRune(r)
				dst = appendUnicodeEscape(dst, hi)
				dst = appendUnicodeEscape(dst, lo)
			} else {
				dst = appendUnicodeEscape(dst, r)
			}
		default:
			dst = utf8.AppendRune(dst, r)
		}
	}
	return append(dst, '"')
}
