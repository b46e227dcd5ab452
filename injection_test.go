package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.spyglass.dev/highlight/query"
	"go.spyglass.dev/highlight/syntax"
	"go.spyglass.dev/highlight/syntax/syntaxtest"
)

func TestContentRanges_ExcludesChildren(t *testing.T) {
	n := syntaxtest.N("heredoc_body", 0, 20,
		syntaxtest.N("interpolation", 4, 9),
		syntaxtest.N("interpolation", 12, 16),
	)

	assert.Equal(t, []syntax.Range{
		{Start: 0, End: 4},
		{Start: 9, End: 12},
		{Start: 16, End: 20},
	}, contentRanges(n, false))

	assert.Equal(t, []syntax.Range{
		{Start: 0, End: 20},
	}, contentRanges(n, true))
}

func TestContentRanges_LeafNode(t *testing.T) {
	n := syntaxtest.N("raw_text", 3, 8)
	assert.Equal(t, []syntax.Range{{Start: 3, End: 8}}, contentRanges(n, false))
}

func TestPlanInjections_LanguageResolutionOrder(t *testing.T) {
	source := []byte("lua print(1)")
	content := syntaxtest.N("block", 4, 12)
	langNode := syntaxtest.N("info", 0, 3)

	// Property beats the @injection.language capture.
	sites := planInjections([]query.Match{{
		Captures: []query.Capture{
			{Name: "injection.content", Node: content},
			{Name: "injection.language", Node: langNode},
		},
		Properties: map[string]string{"injection.language": "sql"},
	}}, source, "host", "parent")
	assert.Equal(t, "sql", sites[0].language)

	// Without the property the capture text decides.
	sites = planInjections([]query.Match{{
		Captures: []query.Capture{
			{Name: "injection.content", Node: content},
			{Name: "injection.language", Node: langNode},
		},
	}}, source, "host", "parent")
	assert.Equal(t, "lua", sites[0].language)

	// No language at all drops the site.
	sites = planInjections([]query.Match{{
		Captures: []query.Capture{{Name: "injection.content", Node: content}},
	}}, source, "host", "parent")
	assert.Empty(t, sites)
}

func TestPlanInjections_LanguageNodeOutOfBounds(t *testing.T) {
	source := []byte("short")
	content := syntaxtest.N("block", 0, 5)
	langNode := syntaxtest.N("info", 40, 90)

	// A parser reporting offsets past the source must not panic the planner;
	// the site resolves no language and is dropped.
	sites := planInjections([]query.Match{{
		Captures: []query.Capture{
			{Name: "injection.content", Node: content},
			{Name: "injection.language", Node: langNode},
		},
	}}, source, "host", "parent")
	assert.Empty(t, sites)
}

func TestGroupInjections_CombinedByPattern(t *testing.T) {
	r := func(start, end uint) []syntax.Range {
		return []syntax.Range{{Start: start, End: end}}
	}

	groups := groupInjections([]injectionSite{
		{language: "html", ranges: r(0, 5), combined: true, pattern: 0},
		{language: "css", ranges: r(6, 9), pattern: 1},
		{language: "html", ranges: r(13, 19), combined: true, pattern: 0},
	})

	assert.Equal(t, []injectionGroup{
		{language: "html", ranges: []syntax.Range{{Start: 0, End: 5}, {Start: 13, End: 19}}, virtual: true},
		{language: "css", ranges: r(6, 9), virtual: false},
	}, groups)
}

func TestGroupInjections_MultiRangeSiteIsVirtual(t *testing.T) {
	groups := groupInjections([]injectionSite{{
		language: "sql",
		ranges:   []syntax.Range{{Start: 0, End: 4}, {Start: 9, End: 12}},
		pattern:  2,
	}})

	assert.Equal(t, []injectionGroup{{
		language: "sql",
		ranges:   []syntax.Range{{Start: 0, End: 4}, {Start: 9, End: 12}},
		virtual:  true,
	}}, groups)
}
