package analyzer

import (
	"fmt"
	"slices"

	"github.com/mcncl/jsonwrap"
	"github.com/mcncl/jsonwrap/internal/models"
)

// Analyzer walks decoded documents and collects structural statistics
type Analyzer struct {
	// keys tracks object keys seen so far
	keys map[string]struct{}
	// summary accumulates the result of the current walk
	summary models.Summary
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze returns statistics for doc. Depth is counted the way the decoder
// counts it: a scalar root has depth 0 and [[1]] has depth 2.
func (a *Analyzer) Analyze(doc models.Document) (models.Summary, error) {
	a.keys = make(map[string]struct{})
	a.summary = models.Summary{
		Bytes: len(doc.Source),
		Kinds: make(map[jsonwrap.Kind]int),
	}

	if err := a.analyzeNode(doc.Root, 0); err != nil {
		return models.Summary{}, err
	}

	a.summary.Keys = make([]string, 0, len(a.keys))
	for k := range a.keys {
		a.summary.Keys = append(a.summary.Keys, k)
	}
	slices.Sort(a.summary.Keys)

	return a.summary, nil
}

// analyzeNode records node, found at the given container depth
func (a *Analyzer) analyzeNode(node jsonwrap.Value, depth int) error {
	a.summary.Values++
	a.summary.Kinds[node.Kind()]++

	switch node.Kind() {
	case jsonwrap.KindNull, jsonwrap.KindBool, jsonwrap.KindInt, jsonwrap.KindFloat, jsonwrap.KindString:
		return nil
	case jsonwrap.KindArray:
		items, _ := node.Array()
		a.enter(depth + 1)
		a.summary.LongestArray = max(a.summary.LongestArray, len(items))
		for _, item := range items {
			if err := a.analyzeNode(item, depth+1); err != nil {
				return err
			}
		}
		return nil
	case jsonwrap.KindMap:
		m, _ := node.Map()
		a.enter(depth + 1)
		a.summary.Widest = max(a.summary.Widest, m.Len())
		for k, v := range m.All() {
			a.keys[k] = struct{}{}
			if err := a.analyzeNode(v, depth+1); err != nil {
				return err
			}
		}
		return nil
	case jsonwrap.KindObject:
		o, _ := node.Object()
		a.enter(depth + 1)
		a.summary.Widest = max(a.summary.Widest, o.Len())
		for k, v := range o.All() {
			a.keys[k] = struct{}{}
			if err := a.analyzeNode(v, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unexpected value kind %d", int(node.Kind()))
	}
}

func (a *Analyzer) enter(depth int) {
	a.summary.MaxDepth = max(a.summary.MaxDepth, depth)
}
