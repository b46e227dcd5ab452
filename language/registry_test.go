package language_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.spyglass.dev/highlight/language"
	"go.spyglass.dev/highlight/query"
	"go.spyglass.dev/highlight/syntax/syntaxtest"
)

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := language.NewRegistry()

	assert.Error(t, reg.Register(language.Language{Parser: syntaxtest.NewParser()}))
	assert.Error(t, reg.Register(language.Language{Name: "go"}))
	assert.NoError(t, reg.Register(language.Language{Name: "go", Parser: syntaxtest.NewParser()}))
}

func TestRegistry_Languages(t *testing.T) {
	reg := language.NewRegistry()
	for _, name := range []string{"rust", "go", "php"} {
		require.NoError(t, reg.Register(language.Language{Name: name, Parser: syntaxtest.NewParser()}))
	}

	assert.Equal(t, []string{"go", "php", "rust"}, reg.Languages())
}

func TestRegistry_ConfigUnknown(t *testing.T) {
	reg := language.NewRegistry()

	_, err := reg.Config(context.Background(), "nope")
	require.ErrorIs(t, err, language.ErrGrammarMissing)
}

func TestRegistry_ConfigCached(t *testing.T) {
	reg := language.NewRegistry()
	require.NoError(t, reg.Register(language.Language{
		Name:            "go",
		Parser:          syntaxtest.NewParser(),
		HighlightsQuery: []byte(`(comment) @comment`),
	}))

	first, err := reg.Config(context.Background(), "go")
	require.NoError(t, err)
	second, err := reg.Config(context.Background(), "go")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, first.Highlights.PatternCount())
	assert.Nil(t, first.Injections)
}

func TestRegistry_ReplaceDropsCache(t *testing.T) {
	reg := language.NewRegistry()
	require.NoError(t, reg.Register(language.Language{
		Name:            "go",
		Parser:          syntaxtest.NewParser(),
		HighlightsQuery: []byte(`(comment) @comment`),
	}))

	first, err := reg.Config(context.Background(), "go")
	require.NoError(t, err)

	require.NoError(t, reg.Register(language.Language{
		Name:   "go",
		Parser: syntaxtest.NewParser(),
		HighlightsQuery: []byte(`
(comment) @comment
(interpreted_string_literal) @string
`),
	}))

	second, err := reg.Config(context.Background(), "go")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, second.Highlights.PatternCount())
}

func TestRegistry_BrokenQueryDisablesOnlyThatLanguage(t *testing.T) {
	reg := language.NewRegistry()
	require.NoError(t, reg.Register(language.Language{
		Name:            "bad",
		Parser:          syntaxtest.NewParser(),
		HighlightsQuery: []byte(`(comment`),
	}))
	require.NoError(t, reg.Register(language.Language{
		Name:            "good",
		Parser:          syntaxtest.NewParser(),
		HighlightsQuery: []byte(`(comment) @comment`),
	}))

	_, err := reg.Config(context.Background(), "bad")
	var serr *query.SyntaxError
	require.ErrorAs(t, err, &serr)

	cfg, err := reg.Config(context.Background(), "good")
	require.NoError(t, err)
	assert.NotNil(t, cfg.Highlights)
}

func TestRegistry_LoadQueries(t *testing.T) {
	reg := language.NewRegistry()
	require.NoError(t, reg.Register(language.Language{
		Name:            "go",
		Parser:          syntaxtest.NewParser(),
		HighlightsQuery: []byte(`(comment) @comment`),
	}))
	require.NoError(t, reg.Register(language.Language{
		Name:            "php",
		Parser:          syntaxtest.NewParser(),
		HighlightsQuery: []byte(`(comment) @comment`),
	}))

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "queries/go/highlights.scm", []byte(`
(comment) @comment
(identifier) @variable
`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "queries/go/injections.scm",
		[]byte(`((comment) @injection.content (#set! injection.language "doc"))`), 0o644))

	require.NoError(t, reg.LoadQueries(fsys, "queries"))

	cfg, err := reg.Config(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Highlights.PatternCount())
	require.NotNil(t, cfg.Injections)
	assert.Equal(t, 1, cfg.Injections.PatternCount())

	// php had no files on disk; its in-code sources stay in effect.
	cfg, err = reg.Config(context.Background(), "php")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Highlights.PatternCount())
	assert.Nil(t, cfg.Injections)
}
