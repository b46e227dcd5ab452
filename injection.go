package highlight

import (
	"go.spyglass.dev/highlight/query"
	"go.spyglass.dev/highlight/syntax"
)

// Capture names and directive keys recognized by the injection planner. The
// property keys are produced by #set! directives in injections queries; the
// capture names bind nodes directly.
const (
	captureInjectionContent  = "injection.content"
	captureInjectionLanguage = "injection.language"

	propInjectionLanguage        = "injection.language"
	propInjectionCombined        = "injection.combined"
	propInjectionIncludeChildren = "injection.include-children"
	propInjectionSelf            = "injection.self"
	propInjectionParent          = "injection.parent"
)

// injectionSite is one region of the document to highlight under a different
// language. A site may span multiple disjoint ranges when the content node's
// children are excluded; those ranges always form one virtual document.
type injectionSite struct {
	// language is the resolved target language name; empty when the match
	// carried no resolvable language, in which case the site is dropped.
	language string
	ranges   []syntax.Range
	combined bool
	// pattern is the declaration index of the originating pattern; it is
	// the identity key that merges combined sites into one group.
	pattern int
}

// planInjections turns injection-query matches into sites. The target
// language is resolved, in order, from the injection.language property (set
// statically or dynamically by a #set! directive), the @injection.language
// capture's text, and the self/parent fallback properties.
func planInjections(matches []query.Match, source []byte, languageName, parentName string) []injectionSite {
	var sites []injectionSite
	for i := range matches {
		m := &matches[i]

		content, ok := m.Node(captureInjectionContent)
		if !ok {
			continue
		}

		lang := m.Properties[propInjectionLanguage]
		if lang == "" {
			if node, ok := m.Node(captureInjectionLanguage); ok {
				lang = string(nodeText(node, source))
			}
		}
		if lang == "" && m.HasProperty(propInjectionSelf) {
			lang = languageName
		}
		if lang == "" && m.HasProperty(propInjectionParent) {
			lang = parentName
		}
		if lang == "" {
			continue
		}

		ranges := contentRanges(content, m.HasProperty(propInjectionIncludeChildren))
		if len(ranges) == 0 {
			continue
		}

		sites = append(sites, injectionSite{
			language: lang,
			ranges:   ranges,
			combined: m.HasProperty(propInjectionCombined),
			pattern:  m.PatternIndex,
		})
	}
	return sites
}

// nodeText returns the bytes a node spans, clamped to the source bounds so a
// misbehaving parser cannot panic the planner.
func nodeText(n syntax.Node, source []byte) []byte {
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(source)) || end > uint(len(source)) || start > end {
		return nil
	}
	return source[start:end]
}

// contentRanges returns the byte ranges of a content node to reparse. Unless
// the pattern opts into include-children, the ranges of the node's children
// are excluded so only the node's own content is reparsed.
func contentRanges(n syntax.Node, includeChildren bool) []syntax.Range {
	if includeChildren || n.ChildCount() == 0 {
		r := syntax.NodeRange(n)
		if r.Empty() {
			return nil
		}
		return []syntax.Range{r}
	}

	var out []syntax.Range
	pos := n.StartByte()
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child.StartByte() > pos {
			out = append(out, syntax.Range{Start: pos, End: child.StartByte()})
		}
		if child.EndByte() > pos {
			pos = child.EndByte()
		}
	}
	if pos < n.EndByte() {
		out = append(out, syntax.Range{Start: pos, End: n.EndByte()})
	}
	return out
}

// injectionGroup is the unit of recursion: either a single non-combined site
// or all combined sites of one pattern merged, with their ranges concatenated
// into one virtual document in document order.
type injectionGroup struct {
	language string
	ranges   []syntax.Range
	// virtual marks that all ranges parse as one concatenated document.
	virtual bool
}

// groupInjections folds combined sites of the same pattern and language into
// one group each, in first-seen order. Non-combined sites become their own
// group; a multi-range site is virtual on its own.
func groupInjections(sites []injectionSite) []injectionGroup {
	var groups []injectionGroup

	type groupKey struct {
		pattern  int
		language string
	}
	combined := make(map[groupKey]int)

	for _, site := range sites {
		if site.combined {
			key := groupKey{pattern: site.pattern, language: site.language}
			if gi, ok := combined[key]; ok {
				groups[gi].ranges = append(groups[gi].ranges, site.ranges...)
				continue
			}
			combined[key] = len(groups)
			groups = append(groups, injectionGroup{
				language: site.language,
				ranges:   site.ranges,
				virtual:  true,
			})
			continue
		}

		groups = append(groups, injectionGroup{
			language: site.language,
			ranges:   site.ranges,
			virtual:  len(site.ranges) > 1,
		})
	}
	return groups
}
