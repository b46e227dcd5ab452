// Package treesitter adapts tree-sitter grammars to the engine's
// syntax.Parser contract. It requires cgo, like the underlying bindings.
package treesitter

import (
	"context"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"go.spyglass.dev/highlight/syntax"
)

// Parser parses one tree-sitter language. It is safe for concurrent use: a
// fresh tree-sitter parser is created per call and the incremental state is
// mutex-guarded.
type Parser struct {
	lang *tree_sitter.Language

	mu       sync.Mutex
	lastTree *tree_sitter.Tree
	lastSrc  []byte
}

// New wraps a tree-sitter language, e.g.
// tree_sitter.NewLanguage(tree_sitter_go.Language()).
func New(lang *tree_sitter.Language) *Parser {
	return &Parser{lang: lang}
}

func (p *Parser) Parse(ctx context.Context, source []byte, hint *syntax.EditHint) (syntax.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(p.lang); err != nil {
		return nil, errors.Errorf("setting language: %w", err)
	}

	old := p.editedTree(source, hint)
	tree := parser.ParseWithOptions(func(i int, _ tree_sitter.Point) []byte {
		return source[i:]
	}, old, nil)
	if tree == nil {
		return nil, errors.New("parser produced no tree")
	}

	p.mu.Lock()
	p.lastTree = tree
	p.lastSrc = append([]byte(nil), source...)
	p.mu.Unlock()

	return node{n: *tree.RootNode()}, nil
}

// editedTree applies the edit hint to the previously parsed tree so
// tree-sitter can reparse incrementally. Without a hint, or without a
// previous tree, parsing starts from scratch.
func (p *Parser) editedTree(source []byte, hint *syntax.EditHint) *tree_sitter.Tree {
	if hint == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastTree == nil {
		return nil
	}

	p.lastTree.Edit(&tree_sitter.InputEdit{
		StartByte:      hint.StartByte,
		OldEndByte:     hint.OldEndByte,
		NewEndByte:     hint.NewEndByte,
		StartPosition:  pointAt(p.lastSrc, hint.StartByte),
		OldEndPosition: pointAt(p.lastSrc, hint.OldEndByte),
		NewEndPosition: pointAt(source, hint.NewEndByte),
	})
	return p.lastTree
}

// pointAt converts a byte offset into a row/column point.
func pointAt(src []byte, offset uint) tree_sitter.Point {
	if offset > uint(len(src)) {
		offset = uint(len(src))
	}
	var pt tree_sitter.Point
	for _, b := range src[:offset] {
		if b == '\n' {
			pt.Row++
			pt.Column = 0
		} else {
			pt.Column++
		}
	}
	return pt
}

// node adapts a tree-sitter node to syntax.Node.
type node struct {
	n tree_sitter.Node
}

func (w node) Kind() string    { return w.n.Kind() }
func (w node) StartByte() uint { return w.n.StartByte() }
func (w node) EndByte() uint   { return w.n.EndByte() }
func (w node) ChildCount() int { return int(w.n.ChildCount()) }
func (w node) IsNamed() bool   { return w.n.IsNamed() }
func (w node) IsError() bool   { return w.n.IsError() }

func (w node) Child(i int) syntax.Node {
	child := w.n.Child(uint(i))
	if child == nil {
		return nil
	}
	return node{n: *child}
}

func (w node) FieldName(i int) string {
	return w.n.FieldNameForChild(uint32(i))
}
