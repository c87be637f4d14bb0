package transform

import (
	"errors"
	"fmt"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/jsast"
)

// Sentinel errors for error type checking
var (
	// ErrUnsupportedLiteral indicates a marker's first argument is not a
	// plain string literal or a template literal without substitutions
	ErrUnsupportedLiteral = errors.New("unsupported template argument")

	// ErrSyntax indicates the input document does not parse
	ErrSyntax = errors.New("source is not valid JavaScript")

	// ErrInvalidOutput indicates the spliced document no longer parses
	ErrInvalidOutput = errors.New("transformed source is not valid JavaScript")

	// ErrUnknownMarker indicates a configured marker name is not recognized
	ErrUnknownMarker = errors.New("unknown marker")
)

// unsupportedLiteralReason is the message shown for every rejected argument
const unsupportedLiteralReason = `use a string literal ("foo") or a template literal without substitutions (` +
	"`bar`" + `); do not build the template from expressions such as "hello" + "world"`

// UnsupportedLiteralError reports a marker call whose template argument has
// an unsupported shape
type UnsupportedLiteralError struct {
	Marker   Marker
	Position jsast.Position
	// Kind is the tree-sitter node kind of the rejected argument
	Kind   string
	Reason string
}

func (e *UnsupportedLiteralError) Error() string {
	return fmt.Sprintf("%s in @%s(...) at %d:%d: found %s\nSuggestion: %s",
		ErrUnsupportedLiteral, e.Marker, e.Position.Line, e.Position.Column, e.Kind, e.Reason)
}

func (e *UnsupportedLiteralError) Unwrap() error {
	return ErrUnsupportedLiteral
}

// SyntaxError reports the first parse error of the input document
type SyntaxError struct {
	Position jsast.Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error at %d:%d", ErrSyntax, e.Position.Line, e.Position.Column)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// InvalidOutputError reports the first parse error of the transformed document
type InvalidOutputError struct {
	Position jsast.Position
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("%s: syntax error at %d:%d of the output", ErrInvalidOutput, e.Position.Line, e.Position.Column)
}

func (e *InvalidOutputError) Unwrap() error {
	return ErrInvalidOutput
}

// TemplateError attaches the call site to a precompilation failure
type TemplateError struct {
	Marker   Marker
	Position jsast.Position
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("@%s(...) at %d:%d: %v", e.Marker, e.Position.Line, e.Position.Column, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
