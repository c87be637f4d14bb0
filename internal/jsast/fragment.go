package jsast

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrMalformedFragment indicates a compiled fragment is not a zero-argument
// factory of the form (function() { return EXPR })
var ErrMalformedFragment = errors.New("malformed compiled fragment")

// Fragment is the expression returned by a compiled factory
type Fragment struct {
	// Kind is the tree-sitter node kind of the expression
	Kind string
	// Text is the source text of the expression
	Text string
}

// FragmentError describes why a fragment could not be unwrapped
type FragmentError struct {
	Reason string
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedFragment, e.Reason)
}

func (e *FragmentError) Unwrap() error {
	return ErrMalformedFragment
}

// ParseFactory parses a factory fragment and returns the expression its body
// returns. The factory itself is discarded.
func (p *Parser) ParseFactory(fragment string) (*Fragment, error) {
	tree, err := p.Parse([]byte(fragment))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if bad := tree.FirstError(); bad != nil {
		pos := PositionOf(bad)
		return nil, &FragmentError{Reason: fmt.Sprintf("syntax error at %d:%d", pos.Line, pos.Column)}
	}

	statements := NamedChildren(tree.Root())
	if len(statements) != 1 || statements[0].Kind() != "expression_statement" {
		return nil, &FragmentError{Reason: "expected a single expression statement"}
	}

	fn := Unparen(statements[0].NamedChild(0))
	if fn == nil || fn.Kind() != "function_expression" {
		return nil, &FragmentError{Reason: "expected a function expression"}
	}
	if params := fn.ChildByFieldName("parameters"); params != nil && len(NamedChildren(params)) > 0 {
		return nil, &FragmentError{Reason: "factory must not take arguments"}
	}

	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil, &FragmentError{Reason: "factory has no body"}
	}
	stmts := NamedChildren(body)
	if len(stmts) != 1 || stmts[0].Kind() != "return_statement" {
		return nil, &FragmentError{Reason: "factory body must be a single return statement"}
	}

	returned := NamedChildren(stmts[0])
	if len(returned) != 1 {
		return nil, &FragmentError{Reason: "factory must return a value"}
	}
	expr := returned[0]

	return &Fragment{
		Kind: expr.Kind(),
		Text: Text(expr, tree.Source),
	}, nil
}

// Unparen strips any number of enclosing parenthesized_expression nodes. It
// returns nil when a parenthesized expression holds more than one child.
func Unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Kind() == "parenthesized_expression" {
		children := NamedChildren(n)
		if len(children) != 1 {
			return nil
		}
		n = children[0]
	}
	return n
}
