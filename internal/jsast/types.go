package jsast

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Node kinds of the tree-sitter JavaScript grammar used by the precompile pass
const (
	KindDecorator            = "decorator"
	KindCallExpression       = "call_expression"
	KindIdentifier           = "identifier"
	KindString               = "string"
	KindTemplateString       = "template_string"
	KindTemplateSubstitution = "template_substitution"
	KindComment              = "comment"
)

// Tree is a parsed JavaScript document
type Tree struct {
	tree *sitter.Tree
	// Source is the text the tree was parsed from
	Source []byte
}

// Root returns the program node
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Close releases the underlying tree-sitter tree
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

// FirstError returns the first ERROR or MISSING node in document order,
// or nil if the document parsed cleanly.
func (t *Tree) FirstError() *sitter.Node {
	root := t.Root()
	if !root.HasError() {
		return nil
	}
	return firstError(root)
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

// Text returns the source text spanned by n
func Text(n *sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

// Position is a 1-based line and column, as printed in diagnostics
type Position struct {
	Line   uint
	Column uint
}

// PositionOf returns the 1-based start position of n
func PositionOf(n *sitter.Node) Position {
	p := n.StartPosition()
	return Position{Line: p.Row + 1, Column: p.Column + 1}
}

// NamedChildren returns the named children of n, skipping comments
func NamedChildren(n *sitter.Node) []*sitter.Node {
	var children []*sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == KindComment {
			continue
		}
		children = append(children, child)
	}
	return children
}
