package transform

import (
	"fmt"
	"slices"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/jsast"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Document is a parsed source file plus the argument replacements recorded
// against it. The parsed tree and its source are never modified; Apply
// produces the edited text.
type Document struct {
	parser *jsast.Parser
	tree   *jsast.Tree
	edits  []edit
}

type edit struct {
	start, end uint
	text       string
}

// Source returns the original document text
func (d *Document) Source() []byte {
	return d.tree.Source
}

// Replace records that the bytes spanned by n become text
func (d *Document) Replace(n *sitter.Node, text string) {
	d.edits = append(d.edits, edit{start: n.StartByte(), end: n.EndByte(), text: text})
}

// Edited reports whether any replacement has been recorded
func (d *Document) Edited() bool {
	return len(d.edits) > 0
}

// Apply returns the source with every recorded replacement applied. Without
// replacements the original bytes are returned as is. The result must parse
// cleanly.
func (d *Document) Apply() ([]byte, error) {
	source := d.Source()
	if len(d.edits) == 0 {
		return source, nil
	}

	edits := slices.Clone(d.edits)
	slices.SortFunc(edits, func(a, b edit) int {
		return int(a.start) - int(b.start)
	})

	out := make([]byte, 0, len(source))
	var cursor uint
	for _, e := range edits {
		if e.start < cursor {
			return nil, fmt.Errorf("overlapping replacements at byte %d", e.start)
		}
		out = append(out, source[cursor:e.start]...)
		out = append(out, e.text...)
		cursor = e.end
	}
	out = append(out, source[cursor:]...)

	tree, err := d.parser.Parse(out)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	if bad := tree.FirstError(); bad != nil {
		return nil, &InvalidOutputError{Position: jsast.PositionOf(bad)}
	}
	return out, nil
}
