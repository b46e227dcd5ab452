package highlight

import (
	"sort"

	"go.spyglass.dev/highlight/query"
	"go.spyglass.dev/highlight/syntax"
)

// candidate is one capture of one match, before overlap resolution.
type candidate struct {
	rng     syntax.Range
	capture string
	pattern int
	// seq is the candidate's arrival order, the tie-break between two
	// candidates of the same pattern.
	seq int
}

// collectCandidates flattens matches into span candidates. Internal captures
// (underscore-prefixed) feed predicates and directives only and produce no
// candidate, and empty ranges are dropped.
func collectCandidates(matches []query.Match) []candidate {
	var out []candidate
	for _, m := range matches {
		for _, c := range m.Captures {
			if c.Internal() {
				continue
			}
			r := syntax.NodeRange(c.Node)
			if r.Empty() {
				continue
			}
			out = append(out, candidate{
				rng:     r,
				capture: c.Name,
				pattern: m.PatternIndex,
				seq:     len(out),
			})
		}
	}
	return out
}

// resolveSpans reduces overlapping candidates to disjoint spans. Wherever two
// candidates overlap, the one from the earlier-declared pattern wins the
// overlapping portion; the loser's non-overlapping remainder still emits its
// own category. This is strictly "first pattern wins": generic catch-all
// patterns must be declared after the specific patterns they would otherwise
// shadow.
func resolveSpans(cands []candidate) []Span {
	if len(cands) == 0 {
		return nil
	}

	type boundary struct {
		pos   uint
		start bool
		idx   int
	}

	events := make([]boundary, 0, len(cands)*2)
	for i := range cands {
		events = append(events,
			boundary{pos: cands[i].rng.Start, start: true, idx: i},
			boundary{pos: cands[i].rng.End, start: false, idx: i},
		)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		// Ends before starts so adjacent candidates do not overlap.
		return !events[i].start && events[j].start
	})

	// Sweep left to right. Within each elementary segment the active
	// candidate with the lowest (pattern, seq) wins.
	var (
		spans   []Span
		active  []int
		pos     uint
		prevWin = -1
	)
	for _, ev := range events {
		if ev.pos > pos && len(active) > 0 {
			win := active[0]
			for _, idx := range active[1:] {
				if cands[idx].pattern < cands[win].pattern ||
					(cands[idx].pattern == cands[win].pattern && cands[idx].seq < cands[win].seq) {
					win = idx
				}
			}

			// Extend the previous span when the same candidate keeps
			// winning across a boundary of a losing candidate.
			if n := len(spans); n > 0 && win == prevWin && spans[n-1].End == pos {
				spans[n-1].End = ev.pos
			} else {
				spans = append(spans, Span{
					Start:    pos,
					End:      ev.pos,
					Category: CategoryForCapture(cands[win].capture),
					Capture:  cands[win].capture,
				})
			}
			prevWin = win
		}
		pos = ev.pos

		if ev.start {
			active = append(active, ev.idx)
		} else {
			for i, idx := range active {
				if idx == ev.idx {
					active = append(active[:i], active[i+1:]...)
					break
				}
			}
		}
	}

	return spans
}
