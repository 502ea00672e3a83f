package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonwrap"
	"github.com/mcncl/jsonwrap/internal/models"
	"github.com/mcncl/jsonwrap/internal/parser"
)

func TestAnalyze_SimpleObject(t *testing.T) {
	jsonInput := `{"name": "John Doe", "age": 30, "is_student": false, "score": 99.5, "city": null}`
	doc, err := parser.ParseString(jsonInput, parser.Options{})
	require.NoError(t, err)

	summary, err := NewAnalyzer().Analyze(doc)
	require.NoError(t, err)

	assert.Equal(t, len(jsonInput), summary.Bytes)
	assert.Equal(t, 6, summary.Values)
	assert.Equal(t, 1, summary.MaxDepth)
	assert.Equal(t, 5, summary.Widest)
	assert.Equal(t, 0, summary.LongestArray)
	assert.Equal(t, []string{"age", "city", "is_student", "name", "score"}, summary.Keys)
	assert.Equal(t, map[jsonwrap.Kind]int{
		jsonwrap.KindMap:    1,
		jsonwrap.KindString: 1,
		jsonwrap.KindInt:    1,
		jsonwrap.KindBool:   1,
		jsonwrap.KindFloat:  1,
		jsonwrap.KindNull:   1,
	}, summary.Kinds)
}

func TestAnalyze_NestedObject(t *testing.T) {
	jsonInput := `{
		"user_id": 123,
		"profile": {
			"full_name": "John Doe",
			"address": {"city": "Anytown", "tags": ["a", "b", "c"]}
		},
		"history": [[1, 2], []]
	}`

	for _, mode := range []models.Mode{models.ModeMap, models.ModeObject} {
		t.Run(string(mode), func(t *testing.T) {
			doc, err := parser.ParseString(jsonInput, parser.Options{Mode: mode})
			require.NoError(t, err)

			summary, err := NewAnalyzer().Analyze(doc)
			require.NoError(t, err)

			assert.Equal(t, 4, summary.MaxDepth)
			assert.Equal(t, 3, summary.LongestArray)
			assert.Equal(t, 3, summary.Widest)
			assert.Equal(t, []string{"address", "city", "full_name", "history", "profile", "tags", "user_id"}, summary.Keys)

			containers := jsonwrap.KindMap
			if mode == models.ModeObject {
				containers = jsonwrap.KindObject
			}
			assert.Equal(t, 3, summary.Kinds[containers])
			assert.Equal(t, 4, summary.Kinds[jsonwrap.KindArray])
		})
	}
}

func TestAnalyze_ScalarRoot(t *testing.T) {
	doc, err := parser.ParseString(`"just a string"`, parser.Options{})
	require.NoError(t, err)

	summary, err := NewAnalyzer().Analyze(doc)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.MaxDepth)
	assert.Equal(t, 1, summary.Values)
	assert.Empty(t, summary.Keys)
}

func TestAnalyze_DuplicateKeysCountedOnce(t *testing.T) {
	doc, err := parser.ParseString(`[{"id": 1}, {"id": 2}, {"id": 3, "extra": true}]`, parser.Options{})
	require.NoError(t, err)

	summary, err := NewAnalyzer().Analyze(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"extra", "id"}, summary.Keys)
	assert.Equal(t, 2, summary.MaxDepth)
}

func TestAnalyze_ReusedAnalyzer(t *testing.T) {
	a := NewAnalyzer()

	first, err := parser.ParseString(`{"a": [1, 2, 3, 4]}`, parser.Options{})
	require.NoError(t, err)
	_, err = a.Analyze(first)
	require.NoError(t, err)

	second, err := parser.ParseString(`{"b": 1}`, parser.Options{})
	require.NoError(t, err)
	summary, err := a.Analyze(second)
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, summary.Keys)
	assert.Equal(t, 0, summary.LongestArray)
}

func TestAnalyze_DeepDocument(t *testing.T) {
	depth := 200
	input := strings.Repeat("[", depth) + strings.Repeat("]", depth)
	doc, err := parser.ParseString(input, parser.Options{})
	require.NoError(t, err)

	summary, err := NewAnalyzer().Analyze(doc)
	require.NoError(t, err)
	assert.Equal(t, depth, summary.MaxDepth)
}
