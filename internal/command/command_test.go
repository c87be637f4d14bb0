package command_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/command"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/config"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/log"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/precompile"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greeting = "@view(\"Hi {{name}}\")\nclass Greeting {}\n"

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeting.js"), []byte(greeting), 0o644))
	return dir
}

// run executes the command line and returns what it wrote to stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := log.GetLevel()
	log.SetOutput(nil)
	t.Cleanup(func() {
		log.SetLevel(prev)
		log.SetOutput(os.Stderr)
	})

	var out bytes.Buffer
	cmd := command.New()
	cmd.Writer = &out
	err := cmd.Run(context.Background(), append([]string{"view-precompile"}, args...))
	return out.String(), err
}

func TestStdout(t *testing.T) {
	dir := project(t)
	out, err := run(t, "--cwd", dir, "greeting.js")
	require.NoError(t, err)
	assert.Contains(t, out, `"compiler":[8,">= 4.3.0"]`)
	assert.Contains(t, out, "class Greeting {}")
	assert.NotContains(t, out, `"Hi {{name}}"`)
}

func TestWrite(t *testing.T) {
	dir := project(t)
	out, err := run(t, "--cwd", dir, "--write")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(filepath.Join(dir, "greeting.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"main":function(container,depth0,helpers,partials,data,blockParams,depths)`)
}

func TestCheck(t *testing.T) {
	dir := project(t)

	_, err := run(t, "--cwd", dir, "--check")
	require.ErrorIs(t, err, command.ErrWouldChange)
	assert.Contains(t, errors.GetAllHints(err), "run again with --write or --out-dir")

	data, err := os.ReadFile(filepath.Join(dir, "greeting.js"))
	require.NoError(t, err)
	assert.Equal(t, greeting, string(data))

	t.Run("pattern flag overrides the default", func(t *testing.T) {
		_, err := run(t, "--cwd", dir, "--check", "--pattern", `\[\[.*\]\]`)
		assert.NoError(t, err)
	})
}

func TestConfigFile(t *testing.T) {
	withConfig := func(t *testing.T) string {
		t.Helper()
		dir := project(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".viewprecompilerc"), []byte(`{"outDir": "dist"}`), 0o644))
		return dir
	}

	dir := withConfig(t)
	_, err := run(t, "--cwd", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dist", "greeting.js"))

	t.Run("previous output is not reprocessed", func(t *testing.T) {
		_, err := run(t, "--cwd", dir)
		assert.NoError(t, err)
	})

	t.Run("out-dir flag wins", func(t *testing.T) {
		dir := withConfig(t)
		_, err := run(t, "--cwd", dir, "--out-dir", "build")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "build", "greeting.js"))
		assert.NoFileExists(t, filepath.Join(dir, "dist", "greeting.js"))
	})

	t.Run("explicit config path", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "alt.yaml"), []byte("engine: ejs\n"), 0o644))
		_, err := run(t, "--cwd", dir, "--config", "alt.yaml")
		assert.ErrorIs(t, err, precompile.ErrUnknownEngine)
	})

	t.Run("broken config", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"outDir": `), 0o644))
		_, err := run(t, "--cwd", dir, "--config", "broken.json")
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestFlagErrors(t *testing.T) {
	dir := project(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown engine", []string{"--engine", "ejs"}, "unknown template engine"},
		{"unknown marker", []string{"--marker", "style"}, "unknown marker"},
		{"bad pattern", []string{"--pattern", `\{\{(`}, "invalid placeholder pattern"},
		{"old runtime", []string{"--runtime-version", "3.0.0"}, "incompatible handlebars runtime"},
		{"bad log level", []string{"--log-level", "loud"}, "unknown log level"},
		{"write and check", []string{"--write", "--check"}, "--write and --check cannot be used together"},
		{"watch and check", []string{"--watch", "--check"}, "--watch and --check cannot be used together"},
		{"no files", []string{"*.ts"}, "no input files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--cwd", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}
