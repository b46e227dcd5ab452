package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.spyglass.dev/highlight/query"
	"go.spyglass.dev/highlight/syntax"
	"go.spyglass.dev/highlight/syntax/syntaxtest"
)

// callTree builds the tree for "print(x)": a call expression with a function
// identifier and an argument list.
func callTree() syntax.Node {
	return syntaxtest.N("source_file", 0, 8,
		syntaxtest.N("call_expression", 0, 8,
			syntaxtest.Field("function", syntaxtest.N("identifier", 0, 5)),
			syntaxtest.Field("arguments", syntaxtest.N("argument_list", 5, 8,
				syntaxtest.Token("(", 5),
				syntaxtest.N("identifier", 6, 7),
				syntaxtest.Token(")", 7),
			)),
		),
	)
}

func mustCompile(t *testing.T, src string) *query.Set {
	t.Helper()
	set, err := query.Compile("test", []byte(src))
	require.NoError(t, err)
	return set
}

func captureNodes(matches []query.Match, name string) []syntax.Range {
	var out []syntax.Range
	for _, m := range matches {
		for _, c := range m.Captures {
			if c.Name == name {
				out = append(out, syntax.NodeRange(c.Node))
			}
		}
	}
	return out
}

func TestMatches_KindAndCapture(t *testing.T) {
	set := mustCompile(t, `(identifier) @variable`)

	matches, err := set.Matches(context.Background(), callTree(), []byte("print(x)"))
	require.NoError(t, err)

	assert.Equal(t, []syntax.Range{{Start: 0, End: 5}, {Start: 6, End: 7}}, captureNodes(matches, "variable"))
}

func TestMatches_FieldConstraint(t *testing.T) {
	set := mustCompile(t, `(call_expression function: (identifier) @function)`)

	matches, err := set.Matches(context.Background(), callTree(), []byte("print(x)"))
	require.NoError(t, err)

	// Only the function identifier, not the argument.
	assert.Equal(t, []syntax.Range{{Start: 0, End: 5}}, captureNodes(matches, "function"))
}

func TestMatches_NestedChildren(t *testing.T) {
	set := mustCompile(t, `(call_expression (argument_list (identifier) @argument))`)

	matches, err := set.Matches(context.Background(), callTree(), []byte("print(x)"))
	require.NoError(t, err)

	assert.Equal(t, []syntax.Range{{Start: 6, End: 7}}, captureNodes(matches, "argument"))
}

func TestMatches_AnonymousNode(t *testing.T) {
	set := mustCompile(t, `"(" @punctuation`)

	matches, err := set.Matches(context.Background(), callTree(), []byte("print(x)"))
	require.NoError(t, err)

	assert.Equal(t, []syntax.Range{{Start: 5, End: 6}}, captureNodes(matches, "punctuation"))
}

func TestMatches_Alternation(t *testing.T) {
	set := mustCompile(t, `[(call_expression) "("] @mixed`)

	matches, err := set.Matches(context.Background(), callTree(), []byte("print(x)"))
	require.NoError(t, err)

	assert.Equal(t, []syntax.Range{{Start: 0, End: 8}, {Start: 5, End: 6}}, captureNodes(matches, "mixed"))
}

func TestMatches_Wildcard(t *testing.T) {
	set := mustCompile(t, `(argument_list (_) @named)`)

	matches, err := set.Matches(context.Background(), callTree(), []byte("print(x)"))
	require.NoError(t, err)

	// (_) matches named nodes only, so the parens are skipped.
	assert.Equal(t, []syntax.Range{{Start: 6, End: 7}}, captureNodes(matches, "named"))
}

func TestMatches_SiblingGroup(t *testing.T) {
	// Sibling sequence: a body node followed by its delimiter, both children
	// of the heredoc node. This is the shape dynamic injections rely on.
	tree := syntaxtest.N("program", 0, 14,
		syntaxtest.N("heredoc", 0, 14,
			syntaxtest.N("heredoc_body", 2, 10),
			syntaxtest.N("heredoc_end", 11, 14),
		),
	)
	set := mustCompile(t, `((heredoc_body) @body (heredoc_end) @end)`)

	matches, err := set.Matches(context.Background(), tree, []byte("h select 1 SQL"))
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, []syntax.Range{{Start: 2, End: 10}}, captureNodes(matches, "body"))
	assert.Equal(t, []syntax.Range{{Start: 11, End: 14}}, captureNodes(matches, "end"))
}

func TestMatches_SiblingStepsBindDistinctNodes(t *testing.T) {
	set := mustCompile(t, `(argument_list (identifier) @a (identifier) @b)`)

	// One identifier cannot satisfy two sibling constraints.
	one := syntaxtest.N("argument_list", 0, 3,
		syntaxtest.N("identifier", 1, 2),
	)
	matches, err := set.Matches(context.Background(), one, []byte("(x)"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	two := syntaxtest.N("argument_list", 0, 6,
		syntaxtest.N("identifier", 1, 2),
		syntaxtest.N("identifier", 4, 5),
	)
	matches, err = set.Matches(context.Background(), two, []byte("(x, y)"))
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, []syntax.Range{{Start: 1, End: 2}}, captureNodes(matches, "a"))
	assert.Equal(t, []syntax.Range{{Start: 4, End: 5}}, captureNodes(matches, "b"))
}

func TestMatches_SiblingOrderEnforced(t *testing.T) {
	set := mustCompile(t, `(pair (alpha) @first (beta) @second)`)

	reversed := syntaxtest.N("pair", 0, 4,
		syntaxtest.N("beta", 0, 2),
		syntaxtest.N("alpha", 2, 4),
	)
	matches, err := set.Matches(context.Background(), reversed, []byte("bbaa"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	ordered := syntaxtest.N("pair", 0, 4,
		syntaxtest.N("alpha", 0, 2),
		syntaxtest.N("beta", 2, 4),
	)
	matches, err = set.Matches(context.Background(), ordered, []byte("aabb"))
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, []syntax.Range{{Start: 0, End: 2}}, captureNodes(matches, "first"))
	assert.Equal(t, []syntax.Range{{Start: 2, End: 4}}, captureNodes(matches, "second"))
}

func TestMatches_RepeatedFieldName(t *testing.T) {
	set := mustCompile(t, `(declaration name: (identifier) @name)`)

	// Two children carry the same field; only the second has the right kind.
	tree := syntaxtest.N("declaration", 0, 5,
		syntaxtest.Field("name", syntaxtest.N("blank", 0, 1)),
		syntaxtest.Field("name", syntaxtest.N("identifier", 2, 5)),
	)
	matches, err := set.Matches(context.Background(), tree, []byte("_ abc"))
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, []syntax.Range{{Start: 2, End: 5}}, captureNodes(matches, "name"))
}

func TestMatches_MultiplePatternsSameNode(t *testing.T) {
	set := mustCompile(t, `
(call_expression function: (identifier) @function)
(identifier) @variable
`)

	matches, err := set.Matches(context.Background(), callTree(), []byte("print(x)"))
	require.NoError(t, err)

	// The function identifier satisfies both patterns; both matches are kept
	// so the resolver can apply precedence.
	assert.Equal(t, []syntax.Range{{Start: 0, End: 5}}, captureNodes(matches, "function"))
	assert.Equal(t, []syntax.Range{{Start: 0, End: 5}, {Start: 6, End: 7}}, captureNodes(matches, "variable"))
}

func TestMatches_Cancellation(t *testing.T) {
	set := mustCompile(t, `(identifier) @variable`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := set.Matches(ctx, callTree(), []byte("print(x)"))
	assert.ErrorIs(t, err, context.Canceled)
}
