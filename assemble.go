package highlight

import "sort"

// assemble merges a layer's own spans with the spans produced by its
// injections. Injected spans win every byte they cover: injection exists to
// replace the host's generic category for those bytes with the nested
// language's real categories. Host spans are clipped around the injected
// coverage; the result is sorted and disjoint.
func assemble(host, injected []Span) []Span {
	if len(injected) == 0 {
		return host
	}

	sort.SliceStable(injected, func(i, j int) bool {
		return injected[i].Start < injected[j].Start
	})
	injected = clipOverlaps(injected)

	out := make([]Span, 0, len(host)+len(injected))
	out = append(out, injected...)

	for _, h := range host {
		for _, piece := range subtract(h, injected) {
			out = append(out, piece)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// clipOverlaps makes a start-sorted span list disjoint, earlier spans winning
// overlapped bytes. Injected spans from distinct groups normally never
// overlap; this guards against pathological queries marking overlapping
// sites.
func clipOverlaps(spans []Span) []Span {
	out := spans[:0]
	var pos uint
	for _, s := range spans {
		if s.Start < pos {
			s.Start = pos
		}
		if s.End <= s.Start {
			continue
		}
		out = append(out, s)
		pos = s.End
	}
	return out
}

// subtract returns the pieces of span s not covered by the disjoint,
// start-sorted holes.
func subtract(s Span, holes []Span) []Span {
	var out []Span
	cur := s
	for _, hole := range holes {
		if hole.End <= cur.Start {
			continue
		}
		if hole.Start >= cur.End {
			break
		}
		if hole.Start > cur.Start {
			left := cur
			left.End = hole.Start
			out = append(out, left)
		}
		if hole.End >= cur.End {
			return out
		}
		cur.Start = hole.End
	}
	out = append(out, cur)
	return out
}
