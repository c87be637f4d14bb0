package precompile_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/precompile"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/precompile/handlebars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileWrapsFactory(t *testing.T) {
	fragment, err := precompile.Compile(precompile.Handlebars, "Hi {{user}}")
	require.NoError(t, err)

	spec, err := handlebars.Precompile("Hi {{user}}")
	require.NoError(t, err)

	assert.Equal(t, "(function() { return "+spec+" })", fragment)
}

func TestCompileUnknownEngine(t *testing.T) {
	_, err := precompile.Compile("mustache", "Hi {{user}}")
	require.Error(t, err)
	assert.ErrorIs(t, err, precompile.ErrUnknownEngine)

	var engineErr *precompile.UnknownEngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, precompile.Engine("mustache"), engineErr.Engine)
	assert.Contains(t, err.Error(), "handlebars")
}

func TestCompileBackendError(t *testing.T) {
	_, err := precompile.Compile(precompile.Handlebars, "{{#each}}")
	require.Error(t, err)
	assert.ErrorIs(t, err, precompile.ErrCompile)
	assert.ErrorIs(t, err, handlebars.ErrParse)
}

func TestRegister(t *testing.T) {
	const engine precompile.Engine = "test-upper"
	precompile.Register(engine, precompile.BackendFunc(func(template string) (string, error) {
		if template == "" {
			return "", errors.New("empty")
		}
		return `"` + strings.ToUpper(template) + `"`, nil
	}))

	assert.Contains(t, precompile.Engines(), engine)
	assert.Contains(t, precompile.Engines(), precompile.Handlebars)

	fragment, err := precompile.Compile(engine, "abc")
	require.NoError(t, err)
	assert.Equal(t, `(function() { return "ABC" })`, fragment)

	_, err = precompile.Compile(engine, "")
	assert.ErrorIs(t, err, precompile.ErrCompile)
}

func TestCheckRuntime(t *testing.T) {
	assert.NoError(t, precompile.CheckRuntime(precompile.Handlebars, "4.7.8"))
	assert.NoError(t, precompile.CheckRuntime(precompile.Handlebars, "v4.3.0"))

	err := precompile.CheckRuntime(precompile.Handlebars, "4.0.12")
	assert.ErrorIs(t, err, handlebars.ErrRuntimeVersion)
	var versionErr *handlebars.RuntimeVersionError
	require.ErrorAs(t, err, &versionErr)
	assert.Equal(t, "4.0.12", versionErr.Version)
	assert.Equal(t, "4.3.0", versionErr.Minimum)

	assert.ErrorIs(t, precompile.CheckRuntime(precompile.Handlebars, "latest"), handlebars.ErrRuntimeVersion)
	assert.ErrorIs(t, precompile.CheckRuntime("mustache", "1.0.0"), precompile.ErrUnknownEngine)

	t.Run("backends without a checker accept any version", func(t *testing.T) {
		const engine precompile.Engine = "test-identity"
		precompile.Register(engine, precompile.BackendFunc(func(template string) (string, error) {
			return template, nil
		}))
		assert.NoError(t, precompile.CheckRuntime(engine, "0.0.1"))
	})
}
