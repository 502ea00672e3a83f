package jsonwrap

import "strings"

// EncodeFlag selects optional encoder behaviour. Flags combine with |.
type EncodeFlag uint32

const (
	// UnescapedUnicode writes non-ASCII characters as they are.
	UnescapedUnicode EncodeFlag = 1 << iota
	// PreserveZeroFraction writes 0.0 instead of 0 for floats.
	PreserveZeroFraction
	// UnescapedSlashes never escapes '/'.
	UnescapedSlashes
	// PrettyPrint indents with four spaces, one element per line.
	PrettyPrint
	// EscapeHTML writes <, > and & as \u003c, \u003e and \u0026.
	EscapeHTML
	// InvalidUTF8Ignore drops invalid UTF-8 bytes from strings.
	InvalidUTF8Ignore
	// InvalidUTF8Substitute replaces invalid UTF-8 bytes with U+FFFD.
	InvalidUTF8Substitute
)

// DefaultEncodeFlags are applied by every Encode call.
const DefaultEncodeFlags = UnescapedUnicode | PreserveZeroFraction | UnescapedSlashes

var encodeFlagNames = []struct {
	flag EncodeFlag
	name string
}{
	{UnescapedUnicode, "unescaped_unicode"},
	{PreserveZeroFraction, "preserve_zero_fraction"},
	{UnescapedSlashes, "unescaped_slashes"},
	{PrettyPrint, "pretty_print"},
	{EscapeHTML, "escape_html"},
	{InvalidUTF8Ignore, "invalid_utf8_ignore"},
	{InvalidUTF8Substitute, "invalid_utf8_substitute"},
}

// Has reports whether all bits of flag are set
func (f EncodeFlag) Has(flag EncodeFlag) bool {
	return f&flag == flag
}

func (f EncodeFlag) String() string {
	var names []string
	for _, n := range encodeFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseEncodeFlag looks up a flag by its snake_case name
func ParseEncodeFlag(name string) (EncodeFlag, bool) {
	for _, n := range encodeFlagNames {
		if n.name == name {
			return n.flag, true
		}
	}
	return 0, false
}

// DecodeFlag selects optional decoder behaviour. Flags combine with |.
type DecodeFlag uint32

const (
	// ObjectAsArray makes object mode produce maps, as map mode does.
	ObjectAsArray DecodeFlag = 1 << iota
	// BigIntAsString keeps integers that overflow int64 as strings
	// instead of converting them to floats.
	BigIntAsString
	// DecodeInvalidUTF8Ignore drops invalid UTF-8 bytes before parsing.
	DecodeInvalidUTF8Ignore
	// DecodeInvalidUTF8Substitute replaces invalid UTF-8 bytes with U+FFFD
	// before parsing.
	DecodeInvalidUTF8Substitute
)

var decodeFlagNames = []struct {
	flag DecodeFlag
	name string
}{
	{ObjectAsArray, "object_as_array"},
	{BigIntAsString, "big_int_as_string"},
	{DecodeInvalidUTF8Ignore, "invalid_utf8_ignore"},
	{DecodeInvalidUTF8Substitute, "invalid_utf8_substitute"},
}

// Has reports whether all bits of flag are set
func (f DecodeFlag) Has(flag DecodeFlag) bool {
	return f&flag == flag
}

func (f DecodeFlag) String() string {
	var names []string
	for _, n := range decodeFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseDecodeFlag looks up a flag by its snake_case name
func ParseDecodeFlag(name string) (DecodeFlag, bool) {
	for _, n := range decodeFlagNames {
		if n.name == name {
			return n.flag, true
		}
	}
	return 0, false
}

// DefaultDepth is the nesting limit used when no depth is given.
const DefaultDepth = 512

// MaxDepth is the largest accepted nesting limit.
const MaxDepth = 1<<31 - 1

type decodeOptions struct {
	depth int
	flags DecodeFlag
}

// DecodeOption configures DecodeArray, DecodeObject and Validate
type DecodeOption func(*decodeOptions)

// WithDepth sets the maximum container nesting. The default is DefaultDepth.
func WithDepth(depth int) DecodeOption {
	return func(o *decodeOptions) {
		o.depth = depth
	}
}

// WithFlags adds decode flags.
func WithFlags(flags ...DecodeFlag) DecodeOption {
	return func(o *decodeOptions) {
		for _, f := range flags {
			o.flags |= f
		}
	}
}

func buildDecodeOptions(opts []DecodeOption) decodeOptions {
	o := decodeOptions{depth: DefaultDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
