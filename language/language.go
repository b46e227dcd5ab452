// Package language ties grammars to their query sources and caches the
// compiled pattern sets process-wide.
package language

import (
	"gitlab.com/tozd/go/errors"

	"go.spyglass.dev/highlight/query"
	"go.spyglass.dev/highlight/syntax"
)

// ErrGrammarMissing is returned when no language is registered under the
// requested name. Callers treat it as recoverable and render plain text.
var ErrGrammarMissing = errors.Base("grammar missing")

// Language couples a black-box parser with the query sources that drive
// highlighting and injection for it. Query sources are in tree-sitter .scm
// form; either may be nil when the language has no patterns of that kind.
type Language struct {
	// Name identifies the language, e.g. "php". Injection directives and
	// dynamic language captures resolve against this name.
	Name string
	// Parser produces the concrete syntax tree for this language.
	Parser syntax.Parser
	// HighlightsQuery holds the highlight patterns, in precedence order.
	HighlightsQuery []byte
	// InjectionsQuery holds the injection patterns.
	InjectionsQuery []byte
}

// Config is a Language with its query sources compiled. Configs are immutable
// once built and shared across highlight passes.
type Config struct {
	Language   Language
	Highlights *query.Set
	Injections *query.Set
}

// compile builds the Config for a language. A compile error in either query
// file disables the whole language; other languages are unaffected.
func compile(lang Language) (*Config, error) {
	cfg := &Config{Language: lang}

	if len(lang.HighlightsQuery) > 0 {
		set, err := query.Compile(lang.Name+"/highlights", lang.HighlightsQuery)
		if err != nil {
			return nil, err
		}
		cfg.Highlights = set
	}
	if len(lang.InjectionsQuery) > 0 {
		set, err := query.Compile(lang.Name+"/injections", lang.InjectionsQuery)
		if err != nil {
			return nil, err
		}
		cfg.Injections = set
	}

	return cfg, nil
}
