package query

import (
	"context"

	"go.spyglass.dev/highlight/syntax"
)

// matcher executes a set's patterns against one tree. It is scoped to a
// single Matches call; the Set itself stays immutable.
type matcher struct {
	set     *Set
	source  []byte
	matches []Match
}

// walk visits every node depth-first and tries every pattern at each node.
// A single node may satisfy multiple patterns; all matches are kept so that
// layered captures work and the resolver can apply declaration-order
// precedence.
func (m *matcher) walk(ctx context.Context, node syntax.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range m.set.patterns {
		m.tryPattern(&m.set.patterns[i], node)
	}

	for i := 0; i < node.ChildCount(); i++ {
		if err := m.walk(ctx, node.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

// tryPattern attempts one pattern anchored at node. Multi-element patterns
// match an ordered sequence of node's children, with gaps allowed between
// elements.
func (m *matcher) tryPattern(pat *Pattern, node syntax.Node) {
	var caps []Capture

	if len(pat.elems) == 1 {
		if !m.matchSteps(pat.elems[0], 0, node, &caps) {
			return
		}
	} else {
		ci := 0
		for _, elem := range pat.elems {
			matched := false
			for ; ci < node.ChildCount(); ci++ {
				save := len(caps)
				if m.matchSteps(elem, 0, node.Child(ci), &caps) {
					matched = true
					ci++
					break
				}
				caps = caps[:save]
			}
			if !matched {
				return
			}
		}
	}

	match := Match{PatternIndex: pat.index, Captures: caps}
	for _, pred := range pat.predicates {
		if !pred.eval(&match, m.source) {
			return
		}
	}
	for _, dir := range pat.directives {
		dir.apply(&match, m.source)
	}
	m.matches = append(m.matches, match)
}

// matchSteps matches the step at idx against node, then matches every child
// step (depth idx.depth+1) against node's children. Child steps consume
// children left to right: once a child satisfies one step, later sibling
// steps only see the children after it, so repeated constraints bind distinct
// nodes and document order is enforced. Captures are appended as the match
// proceeds; callers truncate on failure.
func (m *matcher) matchSteps(steps []step, idx int, node syntax.Node, caps *[]Capture) bool {
	st := &steps[idx]
	if !nodeMatchesStep(st, node) {
		return false
	}
	for _, name := range st.captures {
		*caps = append(*caps, Capture{Name: name, Node: node})
	}

	next := 0
	for i := idx + 1; i < len(steps); i++ {
		if steps[i].depth <= st.depth {
			break
		}
		if steps[i].depth != st.depth+1 {
			continue
		}

		child := &steps[i]
		matched := false
		for j := next; j < node.ChildCount(); j++ {
			if child.field != "" && node.FieldName(j) != child.field {
				continue
			}
			save := len(*caps)
			if m.matchSteps(steps, i, node.Child(j), caps) {
				matched = true
				next = j + 1
				break
			}
			*caps = (*caps)[:save]
		}

		if !matched {
			return false
		}
	}
	return true
}

// nodeMatchesStep checks a single node against a single step's shape
// constraint. Anonymous nodes report their literal text as their kind.
func nodeMatchesStep(st *step, n syntax.Node) bool {
	if len(st.alternatives) > 0 {
		for _, alt := range st.alternatives {
			if alt.anonymous != "" {
				if !n.IsNamed() && n.Kind() == alt.anonymous {
					return true
				}
			} else if n.IsNamed() && n.Kind() == alt.kind {
				return true
			}
		}
		return false
	}

	if st.anonymous != "" {
		return !n.IsNamed() && n.Kind() == st.anonymous
	}
	if st.kind == "" {
		// (_) matches any named node, bare _ matches anything.
		return !st.namedOnly || n.IsNamed()
	}
	return n.IsNamed() && n.Kind() == st.kind
}
