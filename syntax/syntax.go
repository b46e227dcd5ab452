// Package syntax defines the contract between the highlight engine and the
// external parser producing concrete syntax trees. The engine treats trees as
// read-only: it walks nodes, reads kinds and byte ranges, and never mutates.
package syntax

import "context"

// Range is a half-open byte range [Start, End) into the source text a tree
// was parsed from.
type Range struct {
	Start uint
	End   uint
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() uint {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether other lies fully inside r.
func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Overlaps reports whether r and other share at least one byte.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Intersect returns the overlapping portion of r and other. The result is
// empty when the ranges are disjoint.
func (r Range) Intersect(other Range) Range {
	out := Range{Start: max(r.Start, other.Start), End: min(r.End, other.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// Node is a single node of a concrete syntax tree owned by the external
// parser. Implementations must be safe for concurrent reads.
type Node interface {
	// Kind returns the grammar-defined node kind, e.g. "call_expression".
	Kind() string
	// StartByte returns the byte offset where the node begins.
	StartByte() uint
	// EndByte returns the byte offset just past the node's last byte.
	EndByte() uint
	// ChildCount returns the number of children, named and anonymous.
	ChildCount() int
	// Child returns the i-th child in document order.
	Child(i int) Node
	// FieldName returns the grammar field name of the i-th child, or ""
	// if the child is not bound to a field.
	FieldName(i int) string
	// IsNamed reports whether the node is a named grammar rule rather than
	// an anonymous token such as a punctuation literal.
	IsNamed() bool
	// IsError reports whether the node represents a parse error.
	IsError() bool
}

// NodeRange returns the byte range covered by a node.
func NodeRange(n Node) Range {
	return Range{Start: n.StartByte(), End: n.EndByte()}
}

// EditHint describes a single edit applied to previously parsed source text.
// It is passed through to the parser verbatim; parsers that support
// incremental reparsing may use it, others ignore it.
type EditHint struct {
	StartByte  uint
	OldEndByte uint
	NewEndByte uint
}

// Parser produces a syntax tree from source text. Parse is invoked once per
// highlight pass per language layer, including recursive injection passes on
// sliced text, so implementations must treat every call as a standalone
// document unless an EditHint says otherwise.
type Parser interface {
	Parse(ctx context.Context, source []byte, hint *EditHint) (Node, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(ctx context.Context, source []byte, hint *EditHint) (Node, error)

func (f ParserFunc) Parse(ctx context.Context, source []byte, hint *EditHint) (Node, error) {
	return f(ctx, source, hint)
}
