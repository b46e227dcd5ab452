// Package syntaxtest provides hand-built syntax trees and a scripted parser
// for testing the highlight engine without a real grammar.
package syntaxtest

import (
	"context"
	"fmt"

	"go.spyglass.dev/highlight/syntax"
)

// Node is a concrete syntax.Node built directly by tests.
type Node struct {
	kind     string
	start    uint
	end      uint
	named    bool
	isError  bool
	field    string
	children []*Node
}

// N builds a named node of the given kind spanning [start, end).
func N(kind string, start, end uint, children ...*Node) *Node {
	return &Node{kind: kind, start: start, end: end, named: true, children: children}
}

// Token builds an anonymous node whose kind is its literal text, placed at
// the given start offset.
func Token(text string, start uint) *Node {
	return &Node{kind: text, start: start, end: start + uint(len(text))}
}

// Err builds an error node spanning [start, end).
func Err(start, end uint) *Node {
	return &Node{kind: "ERROR", start: start, end: end, named: true, isError: true}
}

// Field returns a copy of n bound to the given grammar field name on its
// parent.
func Field(name string, n *Node) *Node {
	c := *n
	c.field = name
	return &c
}

func (n *Node) Kind() string    { return n.kind }
func (n *Node) StartByte() uint { return n.start }
func (n *Node) EndByte() uint   { return n.end }
func (n *Node) ChildCount() int { return len(n.children) }
func (n *Node) IsNamed() bool   { return n.named }
func (n *Node) IsError() bool   { return n.isError }

func (n *Node) Child(i int) syntax.Node {
	return n.children[i]
}

func (n *Node) FieldName(i int) string {
	return n.children[i].field
}

// Parser maps exact source strings to prebuilt trees. Parsing a source that
// was never defined fails, so tests cannot silently highlight the wrong
// document.
type Parser struct {
	trees map[string]*Node
}

// NewParser returns an empty scripted parser.
func NewParser() *Parser {
	return &Parser{trees: make(map[string]*Node)}
}

// Define registers the tree to return for an exact source string.
func (p *Parser) Define(source string, root *Node) *Parser {
	p.trees[source] = root
	return p
}

func (p *Parser) Parse(_ context.Context, source []byte, _ *syntax.EditHint) (syntax.Node, error) {
	root, ok := p.trees[string(source)]
	if !ok {
		return nil, fmt.Errorf("syntaxtest: no tree defined for source %q", source)
	}
	return root, nil
}
