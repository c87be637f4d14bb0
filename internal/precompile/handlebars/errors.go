package handlebars

import (
	"errors"
	"fmt"
)

// Sentinel errors for error type checking
var (
	// ErrParse indicates the template text is not valid Handlebars
	ErrParse = errors.New("handlebars parse error")

	// ErrUnsupported indicates a construct the code generator does not emit
	ErrUnsupported = errors.New("unsupported handlebars construct")
)

// ParseError wraps the parser's message for a template that failed to parse
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// UnsupportedError names a construct the code generator cannot translate
type UnsupportedError struct {
	Construct string
	Line      int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s on line %d: %s", ErrUnsupported, e.Line, e.Construct)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// ErrRuntimeVersion indicates the target runtime cannot load the emitted specs
var ErrRuntimeVersion = errors.New("incompatible handlebars runtime")

// RuntimeVersionError reports a runtime older than the emitted compiler
// revision supports
type RuntimeVersionError struct {
	Version string
	Minimum string
}

func (e *RuntimeVersionError) Error() string {
	return fmt.Sprintf("%s %s: precompiled templates need %s or newer\nSuggestion: upgrade the handlebars package or remove runtimeVersion",
		ErrRuntimeVersion, e.Version, e.Minimum)
}

func (e *RuntimeVersionError) Unwrap() error {
	return ErrRuntimeVersion
}
