// Package query compiles tree-sitter style pattern files (.scm) into ordered
// pattern sets and executes them against syntax trees. Pattern order is load
// order and is never changed by the compiler: the engine's precedence rule is
// "first declared pattern wins", so reordering would silently change results.
package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.spyglass.dev/highlight/syntax"
)

// Capture binds a capture name to a concrete node of one match.
type Capture struct {
	Name string
	Node syntax.Node
}

// Internal reports whether the capture exists only to feed predicates and
// directives. Internal captures never produce highlight spans.
func (c Capture) Internal() bool {
	return strings.HasPrefix(c.Name, "_")
}

// Match is one satisfied instantiation of a pattern against a tree.
type Match struct {
	// PatternIndex is the declaration index of the originating pattern.
	PatternIndex int
	// Captures holds the bound nodes in pattern order.
	Captures []Capture
	// Properties holds directive results, e.g. "injection.language" => "sql".
	// Keys set without a value map to "".
	Properties map[string]string
}

// Node returns the node bound to the named capture.
func (m *Match) Node(name string) (syntax.Node, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c.Node, true
		}
	}
	return nil, false
}

// HasProperty reports whether a directive set the given key, regardless of
// its value.
func (m *Match) HasProperty(key string) bool {
	_, ok := m.Properties[key]
	return ok
}

// step is a single node-shape constraint within a pattern element. Steps are
// stored flat with a depth field: depth 0 is the element's root node, depth 1
// its children, and so on.
type step struct {
	kind         string // named node kind; "" for wildcard/anonymous/alternation
	anonymous    string // literal text of an anonymous node, e.g. "func"
	namedOnly    bool   // (_) wildcard: any named node
	field        string // required field name on the parent, "" if none
	captures     []string
	depth        int
	alternatives []alternative
}

// alternative is one branch of an [...] alternation.
type alternative struct {
	kind      string // named node kind
	anonymous string // literal text, when the branch is a string
}

// Pattern is one top-level pattern of a set: one or more sibling elements,
// predicates gating the match, and directives producing match properties.
type Pattern struct {
	index      int
	elems      [][]step
	predicates []predicate
	directives []directive
}

// Index returns the pattern's declaration index within its set.
func (p *Pattern) Index() int {
	return p.index
}

// captureNames returns every capture name bound anywhere in the pattern.
func (p *Pattern) captureNames() map[string]struct{} {
	names := make(map[string]struct{})
	for _, elem := range p.elems {
		for _, st := range elem {
			for _, name := range st.captures {
				names[name] = struct{}{}
			}
		}
	}
	return names
}

// predicateOp enumerates the built-in predicate kinds.
type predicateOp uint8

const (
	opEq predicateOp = iota
	opAnyOf
	opMatch
)

// predicate gates a match on the text of one of its captures.
type predicate struct {
	op      predicateOp
	negate  bool
	capture string
	values  []string
	re      *regexp.Regexp
}

func (p predicate) eval(m *Match, source []byte) bool {
	node, ok := m.Node(p.capture)
	if !ok {
		// Unreachable after compile-time validation.
		return false
	}
	text := string(nodeText(node, source))

	var pass bool
	switch p.op {
	case opEq:
		pass = text == p.values[0]
	case opAnyOf:
		for _, v := range p.values {
			if text == v {
				pass = true
				break
			}
		}
	case opMatch:
		pass = p.re.MatchString(text)
	}

	if p.negate {
		return !pass
	}
	return pass
}

// directive attaches a key/value property to a match. The value is either a
// literal or, when fromCapture is set, the text of another capture of the
// same match read at evaluation time.
type directive struct {
	key         string
	value       string
	fromCapture string
}

func (d directive) apply(m *Match, source []byte) {
	value := d.value
	if d.fromCapture != "" {
		node, ok := m.Node(d.fromCapture)
		if !ok {
			return
		}
		value = string(nodeText(node, source))
	}
	if m.Properties == nil {
		m.Properties = make(map[string]string)
	}
	m.Properties[d.key] = value
}

// Set is a compiled, ordered pattern set for one query file of one language.
// A Set is immutable after Compile and safe for concurrent use.
type Set struct {
	name     string
	patterns []Pattern
}

// Name returns the name given to Compile, used in error messages.
func (s *Set) Name() string {
	return s.name
}

// PatternCount returns the number of patterns in declaration order.
func (s *Set) PatternCount() int {
	return len(s.patterns)
}

// Matches executes every pattern of the set against the tree rooted at root
// and returns all predicate-passing matches with their directive properties
// applied. Node offsets in the returned matches index into source. The
// context is checked between node visits so pathological documents can be
// cancelled.
func (s *Set) Matches(ctx context.Context, root syntax.Node, source []byte) ([]Match, error) {
	if root == nil {
		return nil, nil
	}

	m := &matcher{set: s, source: source}
	if err := m.walk(ctx, root); err != nil {
		return nil, err
	}
	return m.matches, nil
}

func nodeText(n syntax.Node, source []byte) []byte {
	start, end := n.StartByte(), n.EndByte()
	if start > uint(len(source)) || end > uint(len(source)) || start > end {
		return nil
	}
	return source[start:end]
}

// SyntaxError reports malformed pattern-shape syntax in a query file.
type SyntaxError struct {
	Query  string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query %s: %d:%d: %s", e.Query, e.Line, e.Column, e.Msg)
}

// MalformedPatternError reports a pattern that parsed but cannot be
// evaluated: an unknown predicate or directive name, a predicate referencing
// a capture the pattern never binds, or a bad argument shape. It is detected
// at compile time, never at match time.
type MalformedPatternError struct {
	Query   string
	Pattern int
	Msg     string
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("query %s: pattern %d: %s", e.Query, e.Pattern, e.Msg)
}
