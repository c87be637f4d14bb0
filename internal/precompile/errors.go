package precompile

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for error type checking
var (
	// ErrUnknownEngine indicates no backend is registered for the configured engine
	ErrUnknownEngine = errors.New("unknown template engine")

	// ErrCompile indicates the backend rejected the template text
	ErrCompile = errors.New("template precompilation failed")
)

// UnknownEngineError names the engine that could not be resolved
type UnknownEngineError struct {
	Engine Engine
	Known  []Engine
}

func (e *UnknownEngineError) Error() string {
	known := make([]string, len(e.Known))
	for i, k := range e.Known {
		known[i] = string(k)
	}
	return fmt.Sprintf("%s %q\nSuggestion: set engine to one of: %s", ErrUnknownEngine, e.Engine, strings.Join(known, ", "))
}

func (e *UnknownEngineError) Unwrap() error {
	return ErrUnknownEngine
}

// NewUnknownEngineError creates a new unknown engine error
func NewUnknownEngineError(engine Engine, known []Engine) error {
	return &UnknownEngineError{
		Engine: engine,
		Known:  known,
	}
}

// CompileError wraps a backend failure
type CompileError struct {
	Engine Engine
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrCompile, e.Engine, e.Err)
}

func (e *CompileError) Unwrap() []error {
	return []error{ErrCompile, e.Err}
}
