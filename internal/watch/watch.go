// Package watch triggers replay when the shared directory changes.
//
// The file-sync tool delivers remote writes as ordinary file events below
// the v2 directory. Watcher watches that directory and every app directory in
// it, collapses bursts of events with a trailing debounce and then calls the
// replay function once. Newly created app directories are added to the watch
// set as they appear.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/decsync/internal/platform"
)

// DefaultDebounce is how long the directory must stay quiet before replay runs.
const DefaultDebounce = 250 * time.Millisecond

// ReplayFunc runs one replay pass. Errors are logged; the watcher keeps going.
type ReplayFunc func(ctx context.Context) error

// Config holds configuration for the watcher.
type Config struct {
	// Debounce batches rapid updates together.
	Debounce time.Duration

	// IgnoreAppID suppresses events from this app's own directory, so local
	// commits do not trigger a replay.
	IgnoreAppID string

	// Logger for watcher activity.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Debounce: DefaultDebounce,
		Logger:   slog.Default(),
	}
}

// Watcher calls a ReplayFunc after changes below a v2 directory.
type Watcher struct {
	root    string
	replay  ReplayFunc
	config  Config
	watcher *fsnotify.Watcher
	watched map[string]bool
	ignored string
}

// New creates a watcher for root, the v2 directory of one sync type and
// collection. The watcher does nothing until Run.
func New(root string, replay ReplayFunc, config Config) (*Watcher, error) {
	if root == "" {
		return nil, errors.New("root cannot be empty")
	}
	if replay == nil {
		return nil, errors.New("replay cannot be nil")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:    filepath.Clean(root),
		replay:  replay,
		config:  config,
		watcher: fsw,
		watched: make(map[string]bool),
	}
	if config.IgnoreAppID != "" {
		w.ignored = filepath.Join(w.root, platform.EncodeName(config.IgnoreAppID))
	}
	return w, nil
}

// Run replays once, then replays after every debounced burst of changes
// until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(); err != nil {
		return err
	}
	w.runReplay(ctx)

	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.config.Logger.Debug("watcher stopped", "root", w.root)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			timer.Reset(w.config.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.config.Logger.Warn("watcher error", "error", err)

		case <-timer.C:
			w.runReplay(ctx)
		}
	}
}

// handleEvent updates the watch set and reports whether event should
// schedule a replay.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	parent := filepath.Dir(event.Name)
	if parent == w.root && event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.add(event.Name)
		}
	}

	if w.ignored != "" && (event.Name == w.ignored || parent == w.ignored) {
		return false
	}
	// Temp files from atomic rewrites; the rename that follows is what counts.
	if strings.HasPrefix(filepath.Base(event.Name), ".tmp-") {
		return false
	}

	w.config.Logger.Debug("file event", "op", event.Op.String(), "path", event.Name)
	return true
}

func (w *Watcher) addTree() error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", w.root, err)
	}
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.watched[w.root] = true

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.root, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.add(filepath.Join(w.root, e.Name()))
		}
	}
	return nil
}

func (w *Watcher) add(dir string) {
	if w.watched[dir] {
		return
	}
	if err := w.watcher.Add(dir); err != nil {
		w.config.Logger.Warn("failed to watch app directory", "path", dir, "error", err)
		return
	}
	w.watched[dir] = true
	w.config.Logger.Debug("watching app directory", "path", dir)
}

func (w *Watcher) runReplay(ctx context.Context) {
	if err := w.replay(ctx); err != nil {
		w.config.Logger.Error("replay failed", "error", err)
	}
}
