/*
Package highlight turns source text into ordered, non-overlapping highlight
spans using tree-sitter style queries over a pluggable parser.

Languages are registered once on a [language.Registry] together with their
highlight and injection query sources; compiled pattern sets are cached
process-wide. A [Highlighter] then runs passes against the registry:

	reg := language.NewRegistry()
	err := reg.Register(language.Language{
		Name:            "go",
		Parser:          goParser,
		HighlightsQuery: highlightsQuery,
		InjectionsQuery: injectionsQuery,
	})
	if err != nil {
		log.Fatal(err)
	}

	h := highlight.New(reg)
	spans, err := h.Highlight(ctx, source, "go")
	if err != nil {
		// ErrGrammarMissing and ErrParseFailure are recoverable:
		// render the text unhighlighted.
	}

	for _, s := range spans {
		fmt.Printf("%d-%d %s\n", s.Start, s.End, s.Category)
	}

Span offsets index into the exact source passed to Highlight; mapping bytes
to visual columns is the renderer's concern, as is mapping categories to
colors.

Precedence follows declaration order: where two patterns capture overlapping
ranges, the pattern declared first in the query file wins the overlap. Query
authors therefore declare specific patterns before generic catch-alls.

Injection patterns mark regions to re-highlight under another grammar, either
a fixed one ((#set! injection.language "sql")) or one named by the document
itself (@injection.language, or (#set! injection.language @_delim)). Regions
flagged injection.combined are concatenated into one virtual document before
parsing, so syntax may span the gaps between them; the resulting spans are
split back onto the original fragments. Injections nest to arbitrary depth
and a region whose language is not registered simply keeps the host's spans.
*/
package highlight
