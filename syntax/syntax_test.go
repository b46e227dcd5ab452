package syntax_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.spyglass.dev/highlight/syntax"
	"go.spyglass.dev/highlight/syntax/syntaxtest"
)

func TestRange(t *testing.T) {
	r := syntax.Range{Start: 2, End: 8}

	assert.Equal(t, uint(6), r.Len())
	assert.False(t, r.Empty())
	assert.True(t, syntax.Range{Start: 5, End: 5}.Empty())

	assert.True(t, r.Contains(syntax.Range{Start: 3, End: 8}))
	assert.False(t, r.Contains(syntax.Range{Start: 3, End: 9}))

	assert.True(t, r.Overlaps(syntax.Range{Start: 7, End: 12}))
	assert.False(t, r.Overlaps(syntax.Range{Start: 8, End: 12}))

	assert.Equal(t, syntax.Range{Start: 5, End: 8}, r.Intersect(syntax.Range{Start: 5, End: 12}))
	assert.True(t, r.Intersect(syntax.Range{Start: 10, End: 12}).Empty())
}

func TestParserFunc(t *testing.T) {
	want := syntaxtest.N("program", 0, 3)
	p := syntax.ParserFunc(func(_ context.Context, _ []byte, _ *syntax.EditHint) (syntax.Node, error) {
		return want, nil
	})

	got, err := p.Parse(context.Background(), []byte("abc"), nil)
	require.NoError(t, err)
	assert.Equal(t, syntax.NodeRange(want), syntax.NodeRange(got))
}
