package highlight

import (
	"gitlab.com/tozd/go/errors"

	"go.spyglass.dev/highlight/language"
	"go.spyglass.dev/highlight/query"
)

// ErrParseFailure is returned when the external parser rejects the input.
// Recoverable: the caller renders the pass unhighlighted.
var ErrParseFailure = errors.Base("parse failure")

// ErrGrammarMissing re-exports the registry's sentinel for callers that only
// import this package.
var ErrGrammarMissing = language.ErrGrammarMissing

// Query compile error types, re-exported for callers inspecting load
// failures.
type (
	SyntaxError           = query.SyntaxError
	MalformedPatternError = query.MalformedPatternError
)
