// Package transform precompiles the templates of marker decorators in
// JavaScript source.
//
// For every @view("...") decorator whose template text matches the
// placeholder pattern, the string argument is replaced by the precompiled
// template produced by the configured engine:
//
//	@view("Hi {{user}}")  →  @view({"compiler":[8,">= 4.3.0"],"main":function(...){...},"useData":true})
//
// Decorators that are not markers, marker calls without arguments and
// templates without placeholders are left untouched. A marker whose first
// argument is neither a string literal nor a template literal without
// substitutions aborts the transform.
package transform

import (
	"fmt"
	"regexp"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/collections"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/jsast"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/log"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/precompile"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Config is the per-run configuration of a Transformer
type Config struct {
	// Engine selects the templating backend
	Engine precompile.Engine
	// PlaceholderPattern gates precompilation: templates it does not match
	// are left as they are
	PlaceholderPattern *regexp.Regexp
	// Markers restricts the recognized markers; nil means all of them
	Markers []Marker
}

// Outcome is what happened at one decorator
type Outcome int

const (
	// OutcomeIgnored means the decorator is not a marker call
	OutcomeIgnored Outcome = iota
	// OutcomeNoArgument means the marker call has no arguments
	OutcomeNoArgument
	// OutcomeNoPlaceholder means the template has no placeholders
	OutcomeNoPlaceholder
	// OutcomePrecompiled means the template argument was replaced
	OutcomePrecompiled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeNoArgument:
		return "no argument"
	case OutcomeNoPlaceholder:
		return "no placeholder"
	case OutcomePrecompiled:
		return "precompiled"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Site describes one visited marker call
type Site struct {
	Marker   Marker
	Position jsast.Position
	Outcome  Outcome
}

// Result is the outcome of transforming one document
type Result struct {
	// Source is the transformed text; it is the input slice itself when
	// nothing changed
	Source []byte
	// Changed reports whether any argument was replaced
	Changed bool
	// Sites lists every marker call in source order
	Sites []Site
}

// Precompiled returns the number of replaced arguments
func (r *Result) Precompiled() int {
	n := 0
	for _, s := range r.Sites {
		if s.Outcome == OutcomePrecompiled {
			n++
		}
	}
	return n
}

// Transformer applies the precompile pass. It holds no mutable state and can
// be shared between goroutines.
type Transformer struct {
	engine  precompile.Engine
	pattern *regexp.Regexp
	markers collections.Set[Marker]
}

// New validates cfg and returns a Transformer. An engine without a backend
// is a *precompile.UnknownEngineError.
func New(cfg Config) (*Transformer, error) {
	if _, err := precompile.Lookup(cfg.Engine); err != nil {
		return nil, err
	}

	markers := cfg.Markers
	if markers == nil {
		markers = KnownMarkers()
	}
	set := collections.NewSet[Marker]()
	for _, m := range markers {
		if !knownMarkers.Has(m) {
			return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownMarker, m, KnownMarkers())
		}
		set.Add(m)
	}

	return &Transformer{
		engine:  cfg.Engine,
		pattern: cfg.PlaceholderPattern,
		markers: set,
	}, nil
}

// Transform runs the pass over every decorator of source. On error the
// result is nil and source is left untouched.
func (t *Transformer) Transform(source []byte) (*Result, error) {
	parser := jsast.AcquireParser()
	defer jsast.ReleaseParser(parser)

	tree, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if bad := tree.FirstError(); bad != nil {
		return nil, &SyntaxError{Position: jsast.PositionOf(bad)}
	}

	doc := &Document{parser: parser, tree: tree}
	result := &Result{}

	decorators := parser.Decorators(tree)
	for i := range decorators {
		site, err := t.VisitDecorator(doc, &decorators[i])
		if err != nil {
			return nil, err
		}
		if site.Outcome == OutcomeIgnored {
			continue
		}
		log.Debug("@%s at %d:%d: %s", site.Marker, site.Position.Line, site.Position.Column, site.Outcome)
		result.Sites = append(result.Sites, site)
	}

	out, err := doc.Apply()
	if err != nil {
		return nil, err
	}
	result.Source = out
	result.Changed = doc.Edited()
	return result, nil
}

// VisitDecorator runs the pass on one decorator node of doc. A successful
// precompilation records the replacement of the call's first argument on
// doc; every other outcome leaves doc unchanged.
func (t *Transformer) VisitDecorator(doc *Document, decorator *sitter.Node) (Site, error) {
	source := doc.Source()

	call, callee, ok := MarkedCall(decorator, source)
	if !ok {
		return Site{Outcome: OutcomeIgnored}, nil
	}
	marker, ok := LookupMarker(callee)
	if !ok || !t.markers.Has(marker) {
		return Site{Outcome: OutcomeIgnored}, nil
	}

	site := Site{Marker: marker, Position: jsast.PositionOf(decorator)}

	extraction := Extract(call, source)
	switch extraction.Kind {
	case ExtractSkip:
		site.Outcome = OutcomeNoArgument
		return site, nil
	case ExtractInvalid:
		return site, &UnsupportedLiteralError{
			Marker:   marker,
			Position: jsast.PositionOf(extraction.Arg),
			Kind:     extraction.Arg.Kind(),
			Reason:   extraction.Reason,
		}
	}

	if !HasPlaceholders(extraction.Template, t.pattern) {
		site.Outcome = OutcomeNoPlaceholder
		return site, nil
	}

	factory, err := precompile.Compile(t.engine, extraction.Template)
	if err != nil {
		return site, &TemplateError{Marker: marker, Position: site.Position, Err: err}
	}
	fragment, err := doc.parser.ParseFactory(factory)
	if err != nil {
		return site, &TemplateError{Marker: marker, Position: site.Position, Err: err}
	}

	doc.Replace(extraction.Arg, fragment.Text)
	site.Outcome = OutcomePrecompiled
	return site, nil
}
