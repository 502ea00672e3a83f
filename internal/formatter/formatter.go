package formatter

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mcncl/jsonwrap"
	"github.com/mcncl/jsonwrap/internal/analyzer"
	"github.com/mcncl/jsonwrap/internal/errors"
	"github.com/mcncl/jsonwrap/internal/models"
)

// Output formats understood by Format
const (
	FormatJSON    = "json"
	FormatDump    = "dump"
	FormatSummary = "summary"
)

// Formats lists every format Format accepts by name
var Formats = []string{FormatJSON, FormatDump, FormatSummary}

// Formatter renders decoded documents as text
type Formatter struct {
	flags jsonwrap.EncodeFlag
}

// NewFormatter creates a Formatter. flags are added to the codec's default
// encode flags whenever a value is written as JSON.
func NewFormatter(flags ...jsonwrap.EncodeFlag) *Formatter {
	f := &Formatter{}
	for _, flag := range flags {
		f.flags |= flag
	}
	return f
}

// Format renders doc in the given format
func (f *Formatter) Format(doc models.Document, format string) (string, error) {
	switch format {
	case "", FormatJSON:
		text, err := jsonwrap.Encode(doc.Root, f.flags)
		if err != nil {
			return "", errors.NewEncodeError("failed to encode document", err)
		}
		return text, nil
	case FormatDump:
		var b strings.Builder
		if err := f.dump(&b, doc.Root, 0); err != nil {
			return "", err
		}
		return strings.TrimSuffix(b.String(), "\n"), nil
	case FormatSummary:
		summary, err := analyzer.NewAnalyzer().Analyze(doc)
		if err != nil {
			return "", errors.NewFormatError("failed to analyze document", err)
		}
		return renderSummary(doc, summary), nil
	default:
		return "", errors.NewFormatError(fmt.Sprintf("unknown output format '%s'", format), nil)
	}
}

// scalar encodes a single scalar on one line, whatever the pretty setting
func (f *Formatter) scalar(v jsonwrap.Value) (string, error) {
	text, err := jsonwrap.Encode(v, f.flags&^jsonwrap.PrettyPrint)
	if err != nil {
		return "", errors.NewEncodeError("failed to encode value", err)
	}
	return text, nil
}

// dump writes v as a typed tree, one value per line:
//
//	map(2) {
//	  "name" => string(3) "ann"
//	  "tags" => array(1) {
//	    [0] => int(1)
//	  }
//	}
func (f *Formatter) dump(b *strings.Builder, v jsonwrap.Value, indent int) error {
	pad := strings.Repeat("  ", indent)

	switch v.Kind() {
	case jsonwrap.KindNull:
		b.WriteString("null\n")
	case jsonwrap.KindBool, jsonwrap.KindInt, jsonwrap.KindFloat:
		text, err := f.scalar(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s(%s)\n", v.Kind(), text)
	case jsonwrap.KindString:
		s, _ := v.Text()
		text, err := f.scalar(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "string(%d) %s\n", len(s), text)
	case jsonwrap.KindArray:
		items, _ := v.Array()
		fmt.Fprintf(b, "array(%d) {\n", len(items))
		for i, item := range items {
			fmt.Fprintf(b, "%s  [%d] => ", pad, i)
			if err := f.dump(b, item, indent+1); err != nil {
				return err
			}
		}
		b.WriteString(pad + "}\n")
	case jsonwrap.KindMap:
		m, _ := v.Map()
		fmt.Fprintf(b, "map(%d) {\n", m.Len())
		for k, item := range m.All() {
			key, err := f.scalar(jsonwrap.StringValue(k))
			if err != nil {
				return err
			}
			fmt.Fprintf(b, "%s  %s => ", pad, key)
			if err := f.dump(b, item, indent+1); err != nil {
				return err
			}
		}
		b.WriteString(pad + "}\n")
	case jsonwrap.KindObject:
		o, _ := v.Object()
		fmt.Fprintf(b, "object(%d) {\n", o.Len())
		for name, item := range o.All() {
			key, err := f.scalar(jsonwrap.StringValue(name))
			if err != nil {
				return err
			}
			fmt.Fprintf(b, "%s  ->%s => ", pad, key)
			if err := f.dump(b, item, indent+1); err != nil {
				return err
			}
		}
		b.WriteString(pad + "}\n")
	}
	return nil
}

func renderSummary(doc models.Document, s models.Summary) string {
	var b strings.Builder

	if doc.Path != "" {
		fmt.Fprintf(&b, "Path:           %s\n", doc.Path)
	}
	fmt.Fprintf(&b, "Size:           %s\n", humanize.Bytes(uint64(s.Bytes)))
	fmt.Fprintf(&b, "Root:           %s\n", doc.Root.Kind())
	fmt.Fprintf(&b, "Values:         %s\n", humanize.Comma(int64(s.Values)))
	fmt.Fprintf(&b, "Max depth:      %d\n", s.MaxDepth)
	fmt.Fprintf(&b, "Longest array:  %s\n", humanize.Comma(int64(s.LongestArray)))
	fmt.Fprintf(&b, "Widest object:  %s\n", humanize.Comma(int64(s.Widest)))
	fmt.Fprintf(&b, "Distinct keys:  %s\n", humanize.Comma(int64(len(s.Keys))))

	var kinds []string
	for k := jsonwrap.KindNull; k <= jsonwrap.KindObject; k++ {
		if n := s.Kinds[k]; n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s=%s", k, humanize.Comma(int64(n))))
		}
	}
	fmt.Fprintf(&b, "Kinds:          %s", strings.Join(kinds, " "))

	return b.String()
}
