// Package runner applies the precompile transform to files on disk.
package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/collections"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/log"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/transform"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/natefinch/atomic"
)

// ErrNoFiles indicates neither arguments nor include globs matched a file
var ErrNoFiles = errors.New("no input files")

// Options controls where files come from and where results go
type Options struct {
	// Dir is the directory globs and relative paths are resolved against
	Dir string
	// Include and Exclude select files when no arguments are given;
	// Exclude also filters glob arguments
	Include []string
	Exclude []string
	// OutDir mirrors every processed file below this directory
	OutDir string
	// Write rewrites changed files in place
	Write bool
	// Check reports changed files without writing anything
	Check bool
	// Stdout receives transformed sources when no other destination is set
	Stdout io.Writer
}

// Report summarizes a run
type Report struct {
	Files       int
	Changed     []string
	Precompiled int
}

// Runner drives a Transformer over files
type Runner struct {
	tr   *transform.Transformer
	opts Options
}

// New creates a Runner. Dir defaults to the working directory and Stdout to
// os.Stdout.
func New(tr *transform.Transformer, opts Options) *Runner {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Runner{tr: tr, opts: opts}
}

// Files resolves args to a sorted, de-duplicated file list. Arguments
// containing glob syntax are expanded; plain arguments are taken as paths.
// Without arguments the include globs are expanded.
func (r *Runner) Files(args []string) ([]string, error) {
	files := collections.NewSet[string]()
	patterns := args
	if len(args) == 0 {
		patterns = r.opts.Include
	}

	fsys := os.DirFS(r.opts.Dir)
	for _, arg := range patterns {
		if !isGlob(arg) {
			path := arg
			if !filepath.IsAbs(path) {
				path = filepath.Join(r.opts.Dir, path)
			}
			files.Add(filepath.Clean(path))
			continue
		}

		matches, err := doublestar.Glob(fsys, filepath.ToSlash(arg), doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "expand %q", arg)
		}
		for _, m := range matches {
			excluded, err := r.excluded(m)
			if err != nil {
				return nil, err
			}
			if !excluded {
				files.Add(filepath.Join(r.opts.Dir, filepath.FromSlash(m)))
			}
		}
	}

	if len(files) == 0 {
		return nil, errors.WithHint(ErrNoFiles, "pass files or globs, or set include in the config file")
	}
	return collections.Sorted(files), nil
}

func (r *Runner) excluded(rel string) (bool, error) {
	// earlier output must not be fed back in
	if out := r.opts.OutDir; out != "" && !filepath.IsAbs(out) {
		prefix := filepath.ToSlash(filepath.Clean(out)) + "/"
		if strings.HasPrefix(rel, prefix) {
			return true, nil
		}
	}
	for _, pattern := range r.opts.Exclude {
		// doublestar.Match expects forward slashes
		ok, err := doublestar.Match(filepath.ToSlash(pattern), rel)
		if err != nil {
			return false, errors.Wrapf(err, "exclude pattern %q", pattern)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func isGlob(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

// Run processes files in order and stops at the first error
func (r *Runner) Run(ctx context.Context, files []string) (*Report, error) {
	report := &Report{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := r.ProcessFile(path)
		if err != nil {
			return report, err
		}
		report.Files++
		report.Precompiled += result.Precompiled()
		if result.Changed {
			report.Changed = append(report.Changed, path)
		}
	}
	return report, nil
}

// ProcessFile transforms one file and sends the result to its destination
func (r *Runner) ProcessFile(path string) (*transform.Result, error) {
	source, err := os.ReadFile(path) //nolint:gosec // G304: paths come from the command line or configured globs
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	result, err := r.tr.Transform(source)
	if err != nil {
		err = errors.Wrapf(err, "%s", path)
		if errors.Is(err, transform.ErrSyntax) {
			err = errors.WithHint(err, "only JavaScript (including JSX) is supported; compile TypeScript first")
		}
		return nil, err
	}

	if n := result.Precompiled(); n > 0 {
		log.Info("%s: precompiled %d template(s)", path, n)
	} else {
		log.Debug("%s: nothing to precompile", path)
	}

	switch {
	case r.opts.Check:
		if result.Changed {
			log.Warn("%s would change", path)
		}
	case r.opts.OutDir != "":
		err = r.writeOutDir(path, result.Source)
	case r.opts.Write:
		if result.Changed {
			err = writeFile(path, result.Source)
		}
	default:
		_, err = r.opts.Stdout.Write(result.Source)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) writeOutDir(path string, content []byte) error {
	rel, err := filepath.Rel(r.opts.Dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		// files outside Dir keep only their base name
		rel = filepath.Base(path)
	}
	target := filepath.Join(r.opts.OutDir, rel)
	if !filepath.IsAbs(r.opts.OutDir) {
		target = filepath.Join(r.opts.Dir, target)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(target))
	}
	return writeFile(target, content)
}

func writeFile(path string, content []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
