// Package vdoc builds the virtual document used for combined injections:
// multiple disjoint byte ranges of a host document concatenated, with no
// separators, into one buffer that an injected grammar can parse as a single
// contiguous document. After highlighting, spans expressed in virtual offsets
// are split back onto the original ranges.
package vdoc

import "go.spyglass.dev/highlight/syntax"

// fragment records where one original range landed in the virtual buffer.
type fragment struct {
	virtStart uint
	doc       syntax.Range
}

// Document is an owned virtual-text buffer plus the lookup table mapping
// virtual offsets back to the original fragments. It lives only for the
// duration of one combined-injection pass.
type Document struct {
	text  []byte
	frags []fragment
}

// New concatenates the given ranges of source in order. Empty ranges are
// skipped; ranges are clamped to the source bounds.
func New(source []byte, ranges []syntax.Range) *Document {
	d := &Document{}
	for _, r := range ranges {
		if r.Start > uint(len(source)) {
			continue
		}
		if r.End > uint(len(source)) {
			r.End = uint(len(source))
		}
		if r.Empty() {
			continue
		}
		d.frags = append(d.frags, fragment{virtStart: uint(len(d.text)), doc: r})
		d.text = append(d.text, source[r.Start:r.End]...)
	}
	return d
}

// Text returns the virtual buffer.
func (d *Document) Text() []byte {
	return d.text
}

// Split maps the virtual range [start, end) back into original document
// ranges. A range that straddles a fragment join is cut at the join, so no
// returned range crosses a gap in the real document.
func (d *Document) Split(start, end uint) []syntax.Range {
	var out []syntax.Range
	for _, f := range d.frags {
		virt := syntax.Range{Start: f.virtStart, End: f.virtStart + f.doc.Len()}
		hit := virt.Intersect(syntax.Range{Start: start, End: end})
		if hit.Empty() {
			continue
		}
		out = append(out, syntax.Range{
			Start: f.doc.Start + (hit.Start - f.virtStart),
			End:   f.doc.Start + (hit.End - f.virtStart),
		})
	}
	return out
}
