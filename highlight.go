package highlight

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"go.spyglass.dev/highlight/internal/vdoc"
	"go.spyglass.dev/highlight/language"
	"go.spyglass.dev/highlight/syntax"
)

// Catalog resolves language names to compiled configurations. It is consulted
// once per layer, including recursively for injected languages.
// *language.Registry implements it.
type Catalog interface {
	Config(ctx context.Context, name string) (*language.Config, error)
}

// DefaultMaxDepth bounds injection nesting. Recursion terminates naturally
// when a language has no injection patterns; the cap only guards against
// pathological mutually-injecting queries.
const DefaultMaxDepth = 32

// Highlighter runs highlight passes against a catalog of languages. It holds
// no per-document state: concurrent passes on separate documents are safe
// because the catalog's compiled pattern sets are immutable.
type Highlighter struct {
	catalog  Catalog
	maxDepth int
	maxSpans int
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithMaxDepth caps injection nesting depth.
func WithMaxDepth(n int) Option {
	return func(h *Highlighter) {
		h.maxDepth = n
	}
}

// WithMaxSpans caps the number of spans one pass may return, bounding work on
// pathological inputs. Zero means no cap.
func WithMaxSpans(n int) Option {
	return func(h *Highlighter) {
		h.maxSpans = n
	}
}

// New creates a Highlighter reading languages from the given catalog.
func New(catalog Catalog, opts ...Option) *Highlighter {
	h := &Highlighter{
		catalog:  catalog,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Highlight parses source under the named language and returns the document's
// highlight spans: ordered, pairwise disjoint byte ranges, each inside
// [0, len(source)). It fails with ErrGrammarMissing for an unknown language
// and ErrParseFailure when the parser rejects the input; both are recoverable
// and the caller falls back to rendering plain text.
func (h *Highlighter) Highlight(ctx context.Context, source []byte, languageID string) ([]Span, error) {
	return h.highlight(ctx, source, languageID, "", nil, 0)
}

// HighlightEdited is Highlight with an incremental-edit hint forwarded to the
// language's parser. Parsers without incremental support ignore the hint; the
// engine itself is stateless between calls either way.
func (h *Highlighter) HighlightEdited(ctx context.Context, source []byte, languageID string, hint *syntax.EditHint) ([]Span, error) {
	return h.highlight(ctx, source, languageID, "", hint, 0)
}

// highlight runs one layer: parse, match, resolve, inject, assemble. It
// recurses through highlightGroup for every injection group.
func (h *Highlighter) highlight(ctx context.Context, source []byte, languageID, parentName string, hint *syntax.EditHint, depth int) ([]Span, error) {
	cfg, err := h.catalog.Config(ctx, languageID)
	if err != nil {
		return nil, err
	}

	root, err := cfg.Language.Parser.Parse(ctx, source, hint)
	if err != nil {
		return nil, errors.Errorf("%w: language %s: %v", ErrParseFailure, languageID, err)
	}
	if root == nil {
		return nil, errors.Errorf("%w: language %s: parser returned no tree", ErrParseFailure, languageID)
	}

	var host []Span
	if cfg.Highlights != nil {
		matches, err := cfg.Highlights.Matches(ctx, root, source)
		if err != nil {
			return nil, err
		}
		host = resolveSpans(collectCandidates(matches))
	}

	var injected []Span
	if cfg.Injections != nil && depth < h.maxDepth {
		matches, err := cfg.Injections.Matches(ctx, root, source)
		if err != nil {
			return nil, err
		}
		sites := planInjections(matches, source, languageID, parentName)
		for _, group := range groupInjections(sites) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			spans, err := h.highlightGroup(ctx, source, group, languageID, depth+1)
			if err != nil {
				return nil, err
			}
			injected = append(injected, spans...)
		}
	}

	spans := assemble(host, injected)
	if h.maxSpans > 0 && len(spans) > h.maxSpans {
		spans = spans[:h.maxSpans]
	}
	return spans, nil
}

// highlightGroup recursively highlights one injection group and translates
// the resulting spans back into the host document's coordinate space. A group
// that cannot be highlighted (unknown language, broken query file, parse
// failure) degrades to no injected spans rather than failing the pass; only
// cancellation propagates.
func (h *Highlighter) highlightGroup(ctx context.Context, source []byte, group injectionGroup, parentName string, depth int) ([]Span, error) {
	if group.virtual {
		doc := vdoc.New(source, group.ranges)
		if len(doc.Text()) == 0 {
			return nil, nil
		}

		local, err := h.highlight(ctx, doc.Text(), group.language, parentName, nil, depth)
		if err != nil {
			return nil, h.degrade(ctx, group.language, err)
		}

		var out []Span
		for _, s := range local {
			for _, r := range doc.Split(s.Start, s.End) {
				out = append(out, Span{Start: r.Start, End: r.End, Category: s.Category, Capture: s.Capture})
			}
		}
		return out, nil
	}

	var out []Span
	for _, r := range group.ranges {
		if r.End > uint(len(source)) {
			r.End = uint(len(source))
		}
		if r.Empty() || r.Start > uint(len(source)) {
			continue
		}

		local, err := h.highlight(ctx, source[r.Start:r.End], group.language, parentName, nil, depth)
		if err != nil {
			if err := h.degrade(ctx, group.language, err); err != nil {
				return nil, err
			}
			continue
		}
		for _, s := range local {
			out = append(out, Span{Start: s.Start + r.Start, End: s.End + r.Start, Category: s.Category, Capture: s.Capture})
		}
	}
	return out, nil
}

// degrade swallows a recoverable injection failure, keeping the host layer's
// spans for the region. Cancellation is not recoverable and is returned.
func (h *Highlighter) degrade(ctx context.Context, languageName string, err error) error {
	if ctx.Err() != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().
		Str("language", languageName).
		Err(err).
		Msg("injection skipped")
	return nil
}
