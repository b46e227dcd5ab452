package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Compile parses query source in tree-sitter .scm form into an ordered
// pattern set. The name is used in error messages, conventionally
// "<language>/<file>", e.g. "php/injections".
//
// The supported shape syntax covers named nodes, anonymous string nodes,
// [...] alternations over those two, (_) and _ wildcards, field: constraints,
// "." anchors (accepted and ignored), captures, and grouped sibling patterns.
// Quantifiers and negated fields are not supported. Predicates and directives
// are validated against a fixed registry; unknown names fail compilation.
func Compile(name string, src []byte) (*Set, error) {
	c := &compiler{name: name, src: string(src)}

	set := &Set{name: name}
	for {
		c.skipTrivia()
		if c.eof() {
			break
		}
		if c.peek() != '(' && c.peek() != '[' && c.peek() != '"' {
			return nil, c.syntaxErrorf("expected pattern, found %q", c.peek())
		}

		pat, err := c.parsePattern(len(set.patterns))
		if err != nil {
			return nil, err
		}
		if err := c.validatePattern(pat); err != nil {
			return nil, err
		}
		set.patterns = append(set.patterns, *pat)
	}

	return set, nil
}

type compiler struct {
	name string
	src  string
	pos  int

	// cur collects predicates and directives of the pattern being parsed.
	cur *Pattern
}

// parsePattern parses one top-level pattern: a single element, or a group of
// sibling elements and predicate/directive expressions.
func (c *compiler) parsePattern(index int) (*Pattern, error) {
	pat := &Pattern{index: index}
	c.cur = pat
	defer func() { c.cur = nil }()

	if c.peek() == '[' || c.peek() == '"' {
		elem, err := c.parseElement(0)
		if err != nil {
			return nil, err
		}
		pat.elems = append(pat.elems, elem)
		return pat, nil
	}

	// '(' opens either a node pattern or a group of siblings. A group's
	// first token is another opening delimiter; a node's is a kind name
	// or a wildcard.
	if c.startsGroup() {
		c.pos++ // consume '('
		for {
			c.skipTrivia()
			if c.eof() {
				return nil, c.syntaxErrorf("unexpected end of query, expected %q", ')')
			}
			if c.peek() == ')' {
				c.pos++
				break
			}
			if c.startsAnnotation() {
				if err := c.parseAnnotation(); err != nil {
					return nil, err
				}
				continue
			}
			elem, err := c.parseElement(0)
			if err != nil {
				return nil, err
			}
			pat.elems = append(pat.elems, elem)
		}
		if len(pat.elems) == 0 {
			return nil, c.syntaxErrorf("empty pattern group")
		}
		return pat, nil
	}

	elem, err := c.parseElement(0)
	if err != nil {
		return nil, err
	}
	pat.elems = append(pat.elems, elem)
	return pat, nil
}

// startsGroup reports whether the '(' at the current position opens a group
// rather than a node pattern.
func (c *compiler) startsGroup() bool {
	if c.eof() || c.peek() != '(' {
		return false
	}
	i := c.pos + 1
	for i < len(c.src) && isSpace(c.src[i]) {
		i++
	}
	if i >= len(c.src) {
		return false
	}
	switch c.src[i] {
	case '(', '[', '"':
		return true
	}
	return false
}

// startsAnnotation reports whether the current position opens a predicate or
// directive expression, i.e. "(#".
func (c *compiler) startsAnnotation() bool {
	if c.eof() || c.peek() != '(' {
		return false
	}
	i := c.pos + 1
	for i < len(c.src) && isSpace(c.src[i]) {
		i++
	}
	return i < len(c.src) && c.src[i] == '#'
}

// parseElement parses a node, anonymous node, alternation, or wildcard,
// including any trailing captures, producing its flat step list.
func (c *compiler) parseElement(depth int) ([]step, error) {
	c.skipTrivia()
	if c.eof() {
		return nil, c.syntaxErrorf("unexpected end of query, expected pattern element")
	}

	switch c.peek() {
	case '(':
		return c.parseNode(depth)
	case '"':
		text, err := c.readString()
		if err != nil {
			return nil, err
		}
		st := step{anonymous: text, depth: depth}
		if err := c.readCaptures(&st); err != nil {
			return nil, err
		}
		return []step{st}, nil
	case '[':
		return c.parseAlternation(depth)
	case '_':
		c.pos++
		st := step{depth: depth}
		if err := c.readCaptures(&st); err != nil {
			return nil, err
		}
		return []step{st}, nil
	}
	return nil, c.syntaxErrorf("unexpected character %q in pattern", c.peek())
}

// parseNode parses '(' kind children... ')' with its captures.
func (c *compiler) parseNode(depth int) ([]step, error) {
	c.pos++ // consume '('
	c.skipTrivia()

	root := step{depth: depth}
	switch {
	case c.eof():
		return nil, c.syntaxErrorf("unexpected end of query after %q", '(')
	case c.peek() == '_':
		c.pos++
		root.namedOnly = true
	default:
		kind, err := c.readIdentifier("node kind")
		if err != nil {
			return nil, err
		}
		root.kind = kind
	}

	steps := []step{root}

	for {
		c.skipTrivia()
		if c.eof() {
			return nil, c.syntaxErrorf("unexpected end of query, expected %q", ')')
		}

		ch := c.peek()
		switch {
		case ch == ')':
			c.pos++
			if err := c.readCaptures(&steps[0]); err != nil {
				return nil, err
			}
			return steps, nil

		case ch == '.':
			// Anchor: accepted, not enforced.
			c.pos++

		case c.startsAnnotation():
			if err := c.parseAnnotation(); err != nil {
				return nil, err
			}

		case ch == '(' || ch == '"' || ch == '[' || ch == '_':
			child, err := c.parseElement(depth + 1)
			if err != nil {
				return nil, err
			}
			steps = append(steps, child...)

		case isIdentStart(ch):
			// A bare identifier inside a node must be a field constraint.
			field, err := c.readIdentifier("field name")
			if err != nil {
				return nil, err
			}
			c.skipTrivia()
			if c.eof() || c.peek() != ':' {
				return nil, c.syntaxErrorf("expected %q after field name %q", ':', field)
			}
			c.pos++
			child, err := c.parseElement(depth + 1)
			if err != nil {
				return nil, err
			}
			child[0].field = field
			steps = append(steps, child...)

		default:
			return nil, c.syntaxErrorf("unexpected character %q in pattern", ch)
		}
	}
}

// parseAlternation parses '[' branches ']' with its captures. Branches are
// restricted to plain named nodes and anonymous strings.
func (c *compiler) parseAlternation(depth int) ([]step, error) {
	c.pos++ // consume '['
	st := step{depth: depth}

	for {
		c.skipTrivia()
		if c.eof() {
			return nil, c.syntaxErrorf("unexpected end of query, expected %q", ']')
		}

		switch c.peek() {
		case ']':
			c.pos++
			if len(st.alternatives) == 0 {
				return nil, c.syntaxErrorf("empty alternation")
			}
			if err := c.readCaptures(&st); err != nil {
				return nil, err
			}
			return []step{st}, nil

		case '(':
			c.pos++
			c.skipTrivia()
			kind, err := c.readIdentifier("node kind")
			if err != nil {
				return nil, err
			}
			c.skipTrivia()
			if c.eof() || c.peek() != ')' {
				return nil, c.syntaxErrorf("alternation branches must be plain nodes or strings")
			}
			c.pos++
			st.alternatives = append(st.alternatives, alternative{kind: kind})

		case '"':
			text, err := c.readString()
			if err != nil {
				return nil, err
			}
			st.alternatives = append(st.alternatives, alternative{anonymous: text})

		default:
			return nil, c.syntaxErrorf("unexpected character %q in alternation", c.peek())
		}
	}
}

// readCaptures reads zero or more trailing @name captures onto a step.
func (c *compiler) readCaptures(st *step) error {
	for {
		c.skipTrivia()
		if c.eof() || c.peek() != '@' {
			return nil
		}
		c.pos++
		name, err := c.readIdentifier("capture name")
		if err != nil {
			return err
		}
		st.captures = append(st.captures, name)
	}
}

// argKind discriminates predicate/directive argument forms.
type argKind uint8

const (
	argCapture argKind = iota // @name
	argString                 // "literal"
	argToken                  // bare word
)

type arg struct {
	kind argKind
	text string
}

// parseAnnotation parses one '(#name args...)' predicate or directive and
// appends it to the pattern under construction.
func (c *compiler) parseAnnotation() error {
	c.pos++ // consume '('
	c.skipTrivia()
	c.pos++ // consume '#'

	name, err := c.readIdentifier("predicate name")
	if err != nil {
		return err
	}
	if !c.eof() && c.peek() == '?' {
		c.pos++
		name += "?"
	}
	if !c.eof() && c.peek() == '!' {
		c.pos++
		name += "!"
	}

	var args []arg
	for {
		c.skipTrivia()
		if c.eof() {
			return c.syntaxErrorf("unexpected end of query, expected %q", ')')
		}
		ch := c.peek()
		if ch == ')' {
			c.pos++
			break
		}
		switch {
		case ch == '@':
			c.pos++
			capture, err := c.readIdentifier("capture name")
			if err != nil {
				return err
			}
			args = append(args, arg{kind: argCapture, text: capture})
		case ch == '"':
			text, err := c.readString()
			if err != nil {
				return err
			}
			args = append(args, arg{kind: argString, text: text})
		case isIdentStart(ch):
			text, err := c.readIdentifier("argument")
			if err != nil {
				return err
			}
			args = append(args, arg{kind: argToken, text: text})
		default:
			return c.syntaxErrorf("unexpected character %q in predicate arguments", ch)
		}
	}

	if strings.HasSuffix(name, "?") {
		compile, ok := predicateRegistry[name]
		if !ok {
			return c.malformedf("unknown predicate %q", "#"+name)
		}
		pred, err := compile(c, args)
		if err != nil {
			return err
		}
		c.cur.predicates = append(c.cur.predicates, pred)
		return nil
	}

	compile, ok := directiveRegistry[name]
	if !ok {
		return c.malformedf("unknown directive %q", "#"+name)
	}
	dir, err := compile(c, args)
	if err != nil {
		return err
	}
	c.cur.directives = append(c.cur.directives, dir)
	return nil
}

// predicateRegistry is the fixed allow-list of predicate names. Every entry
// validates its argument shape at compile time and produces the evaluator.
var predicateRegistry = map[string]func(c *compiler, args []arg) (predicate, error){
	"eq?":         compileEq(false),
	"not-eq?":     compileEq(true),
	"any-of?":     compileAnyOf(false),
	"not-any-of?": compileAnyOf(true),
	"match?":      compileMatch(false),
	"not-match?":  compileMatch(true),
}

// directiveRegistry is the fixed allow-list of directive names.
var directiveRegistry = map[string]func(c *compiler, args []arg) (directive, error){
	"set!": compileSet,
}

func compileEq(negate bool) func(c *compiler, args []arg) (predicate, error) {
	return func(c *compiler, args []arg) (predicate, error) {
		if len(args) != 2 || args[0].kind != argCapture || args[1].kind == argCapture {
			return predicate{}, c.malformedf("#eq? expects a capture and one literal")
		}
		return predicate{op: opEq, negate: negate, capture: args[0].text, values: []string{args[1].text}}, nil
	}
}

func compileAnyOf(negate bool) func(c *compiler, args []arg) (predicate, error) {
	return func(c *compiler, args []arg) (predicate, error) {
		if len(args) < 2 || args[0].kind != argCapture {
			return predicate{}, c.malformedf("#any-of? expects a capture and at least one literal")
		}
		values := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			if a.kind == argCapture {
				return predicate{}, c.malformedf("#any-of? literals must not be captures")
			}
			values = append(values, a.text)
		}
		return predicate{op: opAnyOf, negate: negate, capture: args[0].text, values: values}, nil
	}
}

func compileMatch(negate bool) func(c *compiler, args []arg) (predicate, error) {
	return func(c *compiler, args []arg) (predicate, error) {
		if len(args) != 2 || args[0].kind != argCapture || args[1].kind != argString {
			return predicate{}, c.malformedf("#match? expects a capture and one regexp literal")
		}
		re, err := regexp.Compile(args[1].text)
		if err != nil {
			return predicate{}, c.malformedf("#match? regexp: %v", err)
		}
		return predicate{op: opMatch, negate: negate, capture: args[0].text, re: re}, nil
	}
}

func compileSet(c *compiler, args []arg) (directive, error) {
	if len(args) == 0 || len(args) > 2 || args[0].kind != argToken {
		return directive{}, c.malformedf("#set! expects a key and an optional value")
	}
	dir := directive{key: args[0].text}
	if len(args) == 2 {
		if args[1].kind == argCapture {
			dir.fromCapture = args[1].text
		} else {
			dir.value = args[1].text
		}
	}
	return dir, nil
}

// validatePattern checks that every predicate and directive references only
// captures bound by the pattern itself.
func (c *compiler) validatePattern(pat *Pattern) error {
	names := pat.captureNames()
	for _, pred := range pat.predicates {
		if _, ok := names[pred.capture]; !ok {
			return &MalformedPatternError{
				Query:   c.name,
				Pattern: pat.index,
				Msg:     fmt.Sprintf("predicate references unbound capture %q", "@"+pred.capture),
			}
		}
	}
	for _, dir := range pat.directives {
		if dir.fromCapture == "" {
			continue
		}
		if _, ok := names[dir.fromCapture]; !ok {
			return &MalformedPatternError{
				Query:   c.name,
				Pattern: pat.index,
				Msg:     fmt.Sprintf("directive references unbound capture %q", "@"+dir.fromCapture),
			}
		}
	}
	return nil
}

func (c *compiler) eof() bool {
	return c.pos >= len(c.src)
}

func (c *compiler) peek() byte {
	return c.src[c.pos]
}

// skipTrivia skips whitespace and ";" line comments.
func (c *compiler) skipTrivia() {
	for !c.eof() {
		ch := c.peek()
		if isSpace(ch) {
			c.pos++
			continue
		}
		if ch == ';' {
			for !c.eof() && c.peek() != '\n' {
				c.pos++
			}
			continue
		}
		break
	}
}

// readIdentifier reads a kind, field, capture, or property name. Dots and
// hyphens are part of identifiers ("injection.language", "any-of").
func (c *compiler) readIdentifier(what string) (string, error) {
	start := c.pos
	for !c.eof() {
		ch := c.peek()
		if isIdentStart(ch) || (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' {
			c.pos++
			continue
		}
		break
	}
	if c.pos == start {
		return "", c.syntaxErrorf("expected %s", what)
	}
	return c.src[start:c.pos], nil
}

// readString reads a double-quoted string with backslash escapes.
func (c *compiler) readString() (string, error) {
	c.pos++ // consume opening quote
	var sb strings.Builder
	for !c.eof() {
		ch := c.peek()
		switch ch {
		case '\\':
			c.pos++
			if c.eof() {
				return "", c.syntaxErrorf("unterminated string")
			}
			switch esc := c.peek(); esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(esc)
			}
			c.pos++
		case '"':
			c.pos++
			return sb.String(), nil
		case '\n':
			return "", c.syntaxErrorf("unterminated string")
		default:
			sb.WriteByte(ch)
			c.pos++
		}
	}
	return "", c.syntaxErrorf("unterminated string")
}

func (c *compiler) syntaxErrorf(format string, args ...any) error {
	line, col := c.lineCol()
	return &SyntaxError{
		Query:  c.name,
		Line:   line,
		Column: col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (c *compiler) malformedf(format string, args ...any) error {
	index := 0
	if c.cur != nil {
		index = c.cur.index
	}
	return &MalformedPatternError{
		Query:   c.name,
		Pattern: index,
		Msg:     fmt.Sprintf(format, args...),
	}
}

// lineCol converts the current byte position to a 1-based line and column.
func (c *compiler) lineCol() (int, int) {
	line, col := 1, 1
	for i := 0; i < c.pos && i < len(c.src); i++ {
		if c.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}
