package models

import "github.com/mcncl/jsonwrap"

// Mode selects how JSON objects are represented after decoding.
type Mode string

const (
	// ModeMap decodes objects into ordered *jsonwrap.Map values.
	ModeMap Mode = "map"
	// ModeObject decodes objects into *jsonwrap.Object attribute bags.
	ModeObject Mode = "object"
)

// Document is a decoded JSON input together with where it came from.
type Document struct {
	Root   jsonwrap.Value
	Mode   Mode
	Source []byte // the text that was decoded, after path selection
	Path   string // gjson path used to select Source, empty for the whole input
}

// RootIsArray reports whether the root of the document is a JSON array
func (d Document) RootIsArray() bool {
	return d.Root.Kind() == jsonwrap.KindArray
}

// Summary holds structural statistics about a decoded document.
type Summary struct {
	Bytes        int                   // size of the decoded source
	Values       int                   // total number of values, containers included
	MaxDepth     int                   // deepest container nesting; 0 for a scalar root
	Kinds        map[jsonwrap.Kind]int // number of values per kind
	Keys         []string              // distinct object keys, sorted
	LongestArray int                   // most elements in any one array
	Widest       int                   // most members in any one object
}
