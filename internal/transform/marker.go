package transform

import (
	"fmt"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/collections"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/jsast"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Marker is a decorator name whose first argument carries a template
type Marker string

const (
	// View marks @view("...") class decorators
	View Marker = "view"
)

var knownMarkers = collections.NewSet(View)

// KnownMarkers returns every recognized marker, sorted
func KnownMarkers() []Marker {
	return collections.Sorted(knownMarkers)
}

// LookupMarker matches name against the recognized markers
func LookupMarker(name string) (Marker, bool) {
	m := Marker(name)
	return m, knownMarkers.Has(m)
}

// ParseMarkers validates a list of marker names
func ParseMarkers(names []string) ([]Marker, error) {
	markers := make([]Marker, 0, len(names))
	for _, name := range names {
		m, ok := LookupMarker(name)
		if !ok {
			return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownMarker, name, KnownMarkers())
		}
		markers = append(markers, m)
	}
	return markers, nil
}

// MarkedCall returns the call expression of a decorator and the name of its
// callee. ok is false when the decorator is not a call of a plain identifier,
// e.g. @view or @ns.view("...").
func MarkedCall(decorator *sitter.Node, source []byte) (call *sitter.Node, callee string, ok bool) {
	for _, child := range jsast.NamedChildren(decorator) {
		if child.Kind() != jsast.KindCallExpression {
			continue
		}
		fn := child.ChildByFieldName("function")
		if fn == nil || fn.Kind() != jsast.KindIdentifier {
			return nil, "", false
		}
		return child, jsast.Text(fn, source), true
	}
	return nil, "", false
}
