package runner

import (
	"context"
	"path/filepath"
	"time"

	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/collections"
	"github.com/SerkanSipahi/app-decorators-view-precompile/internal/log"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits after the last change before
// reprocessing
var WatchDebounce = 100 * time.Millisecond

// ErrWatchInPlace indicates Watch was asked to rewrite its own inputs
var ErrWatchInPlace = errors.New("watch mode cannot rewrite files in place")

// Watch reprocesses files whenever they change until ctx is cancelled.
// Errors in a single file are logged and do not stop the watcher.
func (r *Runner) Watch(ctx context.Context, files []string) error {
	if r.opts.Write {
		// precompiled output no longer carries a template to compile
		return errors.WithHint(ErrWatchInPlace, "use --out-dir together with --watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer func() { _ = watcher.Close() }()

	// Directories are watched rather than files so editors that save by
	// renaming over the original keep being picked up.
	watched := collections.NewSet[string]()
	dirs := collections.NewSet[string]()
	for _, f := range files {
		watched.Add(filepath.Clean(f))
		dirs.Add(filepath.Dir(filepath.Clean(f)))
	}
	for _, dir := range collections.Sorted(dirs) {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
	}
	log.Info("watching %d file(s)", len(watched))

	pending := collections.NewSet[string]()
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(event.Name)
			if !watched.Has(path) {
				continue
			}
			pending.Add(path)
			if timer == nil {
				timer = time.NewTimer(WatchDebounce)
			} else {
				timer.Reset(WatchDebounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher: %v", err)

		case <-fire:
			fire = nil
			for _, path := range collections.Sorted(pending) {
				if _, err := r.ProcessFile(path); err != nil {
					log.Error("%v", err)
				}
			}
			pending = collections.NewSet[string]()
		}
	}
}
