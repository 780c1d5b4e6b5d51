package orbprofiles

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/yanqian/astro-api/internal/domain/aspects"
)

// Replacer accepts a freshly loaded catalog.
type Replacer interface {
	Replace(catalog aspects.Catalog) error
}

// Watcher reloads the profile file into a Replacer whenever it changes.
type Watcher struct {
	path     string
	target   Replacer
	logger   *slog.Logger
	onReload func(error)
}

// NewWatcher constructs a watcher for path.
func NewWatcher(path string, target Replacer, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:   filepath.Clean(path),
		target: target,
		logger: logger.With("component", "orbprofiles.watcher"),
	}
}

// Start watches the parent directory so editor rename-swaps are seen. It
// returns once the watch is registered; reloads run until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != w.path {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					w.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "error", err)
			}
		}
	}()
	w.logger.Info("watching orb profiles", "path", w.path)
	return nil
}

func (w *Watcher) reload() {
	catalog, _, err := Load(w.path)
	if err == nil {
		err = w.target.Replace(catalog)
	}
	if err != nil {
		w.logger.Warn("orb profile reload rejected; keeping previous catalog", "path", w.path, "error", err)
	} else {
		w.logger.Info("orb profiles reloaded", "path", w.path, "profiles", len(catalog))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
