package jsast

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// Parser wraps a tree-sitter JavaScript parser together with the queries the
// precompile pass runs over every document.
type Parser struct {
	parser         *sitter.Parser
	decoratorQuery *sitter.Query
}

var jsLang = sitter.NewLanguage(tree_sitter_javascript.Language())

// parserPool is a pool of reusable JS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(jsLang); err != nil {
			panic(fmt.Sprintf("failed to set JS language: %v", err))
		}

		decoratorQuery, qerr := sitter.NewQuery(jsLang, `(decorator) @decorator`)
		if qerr != nil {
			panic(fmt.Sprintf("failed to compile decorator query: %v", qerr))
		}

		return &Parser{
			parser:         parser,
			decoratorQuery: decoratorQuery,
		}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Parse parses source into a Tree. The returned tree keeps a reference to
// source; callers must not modify it while the tree is in use.
func (p *Parser) Parse(source []byte) (*Tree, error) {
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned no tree for %d bytes of source", len(source))
	}
	return &Tree{tree: tree, Source: source}, nil
}

// Decorators returns every decorator node of the tree in source order.
func (p *Parser) Decorators(t *Tree) []sitter.Node {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	var decorators []sitter.Node
	matches := cursor.Matches(p.decoratorQuery, t.Root(), t.Source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		for _, capture := range match.Captures {
			decorators = append(decorators, capture.Node)
		}
	}
	return decorators
}
