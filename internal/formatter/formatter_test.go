package formatter

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonwrap"
	"github.com/mcncl/jsonwrap/internal/errors"
	"github.com/mcncl/jsonwrap/internal/models"
	"github.com/mcncl/jsonwrap/internal/parser"
)

func parse(t *testing.T, input string, mode models.Mode) models.Document {
	t.Helper()
	doc, err := parser.ParseString(input, parser.Options{Mode: mode})
	require.NoError(t, err)
	return doc
}

func TestFormat_JSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		flags    []jsonwrap.EncodeFlag
		expected string
	}{
		{
			name:     "compact keeps key order",
			input:    `{"b": 1, "a": [1.0, "x/y", "æß"]}`,
			expected: `{"b":1,"a":[1.0,"x/y","æß"]}`,
		},
		{
			name:     "pretty",
			input:    `{"foo": "bar", "list": [1, 2]}`,
			flags:    []jsonwrap.EncodeFlag{jsonwrap.PrettyPrint},
			expected: "{\n    \"foo\": \"bar\",\n    \"list\": [\n        1,\n        2\n    ]\n}",
		},
		{
			name:     "escape html",
			input:    `["<b>"]`,
			flags:    []jsonwrap.EncodeFlag{jsonwrap.EscapeHTML},
			expected: `["\u003cb\u003e"]`,
		},
		{
			name:     "scalar root",
			input:    `-0.0`,
			expected: `-0.0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewFormatter(tt.flags...).Format(parse(t, tt.input, models.ModeMap), FormatJSON)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormat_JSONObjectMode(t *testing.T) {
	result, err := NewFormatter().Format(parse(t, `{"z": {}, "a": 1}`, models.ModeObject), "")
	require.NoError(t, err)
	assert.Equal(t, `{"z":{},"a":1}`, result)
}

func TestFormat_Dump(t *testing.T) {
	input := `{"name": "ann", "age": 31, "score": 2.0, "tags": ["a", null], "ok": true, "empty": {}}`

	result, err := NewFormatter().Format(parse(t, input, models.ModeMap), FormatDump)
	require.NoError(t, err)

	expected := strings.Join([]string{
		`map(6) {`,
		`  "name" => string(3) "ann"`,
		`  "age" => int(31)`,
		`  "score" => float(2.0)`,
		`  "tags" => array(2) {`,
		`    [0] => string(1) "a"`,
		`    [1] => null`,
		`  }`,
		`  "ok" => bool(true)`,
		`  "empty" => map(0) {`,
		`  }`,
		`}`,
	}, "\n")
	assert.Equal(t, expected, result)
}

func TestFormat_DumpObjectMode(t *testing.T) {
	result, err := NewFormatter().Format(parse(t, `{"user": {"id": 7}}`, models.ModeObject), FormatDump)
	require.NoError(t, err)

	expected := strings.Join([]string{
		`object(1) {`,
		`  ->"user" => object(1) {`,
		`    ->"id" => int(7)`,
		`  }`,
		`}`,
	}, "\n")
	assert.Equal(t, expected, result)
}

func TestFormat_DumpIgnoresPretty(t *testing.T) {
	result, err := NewFormatter(jsonwrap.PrettyPrint).Format(parse(t, `["x"]`, models.ModeMap), FormatDump)
	require.NoError(t, err)
	assert.Equal(t, "array(1) {\n  [0] => string(1) \"x\"\n}", result)
}

func TestFormat_Summary(t *testing.T) {
	input := `{"users": [{"id": 1}, {"id": 2}, {"id": 3}], "total": 3}`

	result, err := NewFormatter().Format(parse(t, input, models.ModeMap), FormatSummary)
	require.NoError(t, err)

	assert.Contains(t, result, "Size:           56 B")
	assert.Contains(t, result, "Root:           map")
	assert.Contains(t, result, "Values:         9")
	assert.Contains(t, result, "Max depth:      3")
	assert.Contains(t, result, "Longest array:  3")
	assert.Contains(t, result, "Distinct keys:  3")
	assert.Contains(t, result, "Kinds:          int=4 array=1 map=4")
	assert.NotContains(t, result, "Path:")
}

func TestFormat_SummaryLargeCounts(t *testing.T) {
	input := "[" + strings.TrimSuffix(strings.Repeat("1,", 1500), ",") + "]"
	doc, err := parser.ParseString(input, parser.Options{})
	require.NoError(t, err)

	result, err := NewFormatter().Format(doc, FormatSummary)
	require.NoError(t, err)

	assert.Contains(t, result, "Size:           3.0 kB")
	assert.Contains(t, result, "Values:         1,501")
	assert.Contains(t, result, "Longest array:  1,500")
}

func TestFormat_SummaryWithPath(t *testing.T) {
	doc, err := parser.ParseString(`{"a": {"b": [1, 2]}}`, parser.Options{Path: "a.b"})
	require.NoError(t, err)

	result, err := NewFormatter().Format(doc, FormatSummary)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result, "Path:           a.b\n"))
	assert.Contains(t, result, "Root:           array")
}

func TestFormat_UnknownFormat(t *testing.T) {
	_, err := NewFormatter().Format(parse(t, `1`, models.ModeMap), "xml")

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorTypeFormat, appErr.Type)
	assert.Contains(t, appErr.Message, "xml")
}

func TestFormat_EncodeFailure(t *testing.T) {
	doc := models.Document{Root: jsonwrap.ArrayValue(jsonwrap.StringValue("bad \xff"))}

	_, err := NewFormatter().Format(doc, FormatJSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, jsonwrap.CodeUTF8)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorTypeEncode, appErr.Type)

	result, err := NewFormatter(jsonwrap.InvalidUTF8Substitute).Format(doc, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[\"bad \uFFFD\"]", result)
}
