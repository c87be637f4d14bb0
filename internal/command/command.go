// Package command wires configuration, the transform and the file runner
// into the view-precompile command line.
package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/config"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/log"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/runner"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/transform"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/version"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

// ErrWouldChange is returned by --check when at least one file is not
// precompiled yet
var ErrWouldChange = errors.New("files are not precompiled")

// New returns the root command
func New() *cli.Command {
	return &cli.Command{
		Name:      "view-precompile",
		Usage:     "precompile @view() templates in JavaScript sources",
		ArgsUsage: "[files or globs...]",
		Version:   version.GetFullVersion(),
		Action:    action,
		Commands:  []*cli.Command{versionCommand},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: .viewprecompilerc* or package.json in --cwd)",
			},
			&cli.StringFlag{
				Name:  "cwd",
				Value: ".",
				Usage: "directory that config discovery, globs and --out-dir are relative to",
			},
			&cli.StringFlag{
				Name:    "engine",
				Aliases: []string{"e"},
				Usage:   "template engine",
			},
			&cli.StringFlag{
				Name:    "pattern",
				Aliases: []string{"p"},
				Usage:   "only precompile templates matching this regular expression",
			},
			&cli.StringFlag{
				Name:  "runtime-version",
				Usage: "fail unless this version of the engine runtime can load the output",
			},
			&cli.StringSliceFlag{
				Name:  "marker",
				Usage: "decorator names to precompile",
			},
			&cli.StringFlag{
				Name:    "out-dir",
				Aliases: []string{"o"},
				Usage:   "write results below this directory, mirroring input paths",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "rewrite files in place",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "exit with an error if any file would change",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "keep running and precompile files again when they change",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: log.LevelInfo.String(),
				Usage: "debug, info, warn or error",
			},
		},
	}
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "print the version",
	Action: func(_ context.Context, cmd *cli.Command) error {
		_, err := fmt.Fprintln(cmd.Root().Writer, version.GetFullVersion())
		return err
	},
}

func action(ctx context.Context, cmd *cli.Command) error {
	level, err := log.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return errors.WithHint(err, "use one of debug, info, warn, error")
	}
	log.SetLevel(level)

	if err := checkFlags(cmd); err != nil {
		return err
	}

	dir := cmd.String("cwd")
	configPath := cmd.String("config")
	if configPath != "" && !filepath.IsAbs(configPath) {
		configPath = filepath.Join(dir, configPath)
	}
	opts, source, err := config.Load(dir, configPath)
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}
	if source != "" {
		log.Debug("using configuration from %s", source)
	}
	applyFlags(cmd, &opts)

	cfg, err := opts.TransformConfig()
	if err != nil {
		return err
	}
	tr, err := transform.New(cfg)
	if err != nil {
		return err
	}

	r := runner.New(tr, runner.Options{
		Dir:     dir,
		Include: opts.Include,
		Exclude: opts.Exclude,
		OutDir:  opts.OutDir,
		Write:   cmd.Bool("write"),
		Check:   cmd.Bool("check"),
		Stdout:  cmd.Root().Writer,
	})

	files, err := r.Files(cmd.Args().Slice())
	if err != nil {
		return err
	}
	report, err := r.Run(ctx, files)
	if err != nil {
		return err
	}

	if cmd.Bool("check") && len(report.Changed) > 0 {
		err := errors.Wrapf(ErrWouldChange, "%d of %d file(s) would change", len(report.Changed), report.Files)
		return errors.WithHint(err, "run again with --write or --out-dir")
	}
	log.Info("%d file(s) processed, %d template(s) precompiled", report.Files, report.Precompiled)

	if !cmd.Bool("watch") {
		return nil
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Watch(ctx, files)
}

func checkFlags(cmd *cli.Command) error {
	exclusive := [][2]string{
		{"write", "check"},
		{"write", "out-dir"},
		{"watch", "check"},
	}
	for _, pair := range exclusive {
		if cmd.IsSet(pair[0]) && cmd.IsSet(pair[1]) {
			return errors.Newf("--%s and --%s cannot be used together", pair[0], pair[1])
		}
	}
	return nil
}

// applyFlags overrides configuration file values with explicitly set flags
func applyFlags(cmd *cli.Command, opts *config.Options) {
	if cmd.IsSet("engine") {
		opts.Engine = cmd.String("engine")
	}
	if cmd.IsSet("pattern") {
		opts.PlaceholderPattern = cmd.String("pattern")
		opts.Regex = ""
	}
	if cmd.IsSet("runtime-version") {
		opts.RuntimeVersion = cmd.String("runtime-version")
	}
	if cmd.IsSet("marker") {
		opts.Markers = cmd.StringSlice("marker")
	}
	if cmd.IsSet("out-dir") {
		opts.OutDir = cmd.String("out-dir")
	}
	if cmd.Bool("write") {
		// in place wins over a configured outDir
		opts.OutDir = ""
	}
}
