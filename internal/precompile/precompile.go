// Package precompile turns template text into a JavaScript source fragment
// that evaluates to the precompiled template.
//
// Each templating engine is a Backend registered under an Engine name. The
// backend's output is an expression; Compile wraps it in a zero-argument
// factory so that the host parser can read it back as a self-contained
// function expression.
package precompile

import (
	"slices"
	"sync"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/precompile/handlebars"
)

// Engine names a templating backend
type Engine string

const (
	// Handlebars emits Handlebars 4.x runtime template specs
	Handlebars Engine = "handlebars"
)

// Backend precompiles template text into the source of a JavaScript expression
type Backend interface {
	Precompile(template string) (string, error)
}

// BackendFunc adapts a function to the Backend interface
type BackendFunc func(template string) (string, error)

// Precompile calls f(template)
func (f BackendFunc) Precompile(template string) (string, error) {
	return f(template)
}

// RuntimeChecker is implemented by backends whose output only loads in some
// versions of the engine's JavaScript runtime
type RuntimeChecker interface {
	CheckRuntime(version string) error
}

type handlebarsBackend struct{}

func (handlebarsBackend) Precompile(template string) (string, error) {
	return handlebars.Precompile(template)
}

func (handlebarsBackend) CheckRuntime(version string) error {
	return handlebars.CheckRuntime(version)
}

var (
	registryMu sync.RWMutex
	registry   = map[Engine]Backend{
		Handlebars: handlebarsBackend{},
	}
)

// Register installs b as the backend for engine, replacing any previous one
func Register(engine Engine, b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[engine] = b
}

// Engines returns the registered engine names, sorted
func Engines() []Engine {
	registryMu.RLock()
	defer registryMu.RUnlock()
	engines := make([]Engine, 0, len(registry))
	for e := range registry {
		engines = append(engines, e)
	}
	slices.Sort(engines)
	return engines
}

// Lookup returns the backend registered for engine. An unknown engine is an
// *UnknownEngineError.
func Lookup(engine Engine) (Backend, error) {
	registryMu.RLock()
	b, ok := registry[engine]
	registryMu.RUnlock()
	if !ok {
		return nil, NewUnknownEngineError(engine, Engines())
	}
	return b, nil
}

// Compile precompiles template with engine and wraps the result as a factory
func Compile(engine Engine, template string) (string, error) {
	b, err := Lookup(engine)
	if err != nil {
		return "", err
	}
	compiled, err := b.Precompile(template)
	if err != nil {
		return "", &CompileError{Engine: engine, Err: err}
	}
	return Factory(compiled), nil
}

// CheckRuntime validates the runtime version the output of engine will be
// loaded by. Backends without a RuntimeChecker accept any version.
func CheckRuntime(engine Engine, version string) error {
	b, err := Lookup(engine)
	if err != nil {
		return err
	}
	if checker, ok := b.(RuntimeChecker); ok {
		return checker.CheckRuntime(version)
	}
	return nil
}

// Factory wraps expr as a function that returns it when called
func Factory(expr string) string {
	return "(function() { return " + expr + " })"
}
