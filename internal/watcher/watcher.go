// Package watcher reloads health thresholds when their file changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called once per debounced change.
type ReloadFunc func(ctx context.Context)

// ThresholdsWatcher watches the directory holding a thresholds file and
// calls reload after the file is created, written, renamed or removed.
// The directory is watched rather than the file so atomic replace-by-rename
// saves are still seen.
type ThresholdsWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	reload   ReloadFunc
	debounce time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	reloads  int
}

// Option configures a ThresholdsWatcher.
type Option func(*ThresholdsWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *ThresholdsWatcher) { w.debounce = d }
}

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *ThresholdsWatcher) { w.logger = logger }
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string, reload ReloadFunc, opts ...Option) (*ThresholdsWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve thresholds path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &ThresholdsWatcher{
		watcher:  fw,
		path:     abs,
		reload:   reload,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("component", "thresholds_watcher"))
	return w, nil
}

// Start adds the watch and runs the event loop in a goroutine. It returns an
// error when the directory cannot be watched.
func (w *ThresholdsWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.running = true
	w.logger.Info("watching thresholds file", slog.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop ends the event loop, waits for it to exit and releases the watcher.
// Safe to call more than once, and after the context passed to Start ends.
func (w *ThresholdsWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("failed to close watcher", slog.String("error", err.Error()))
	}
}

// Reloads returns how many reloads the watcher has triggered.
func (w *ThresholdsWatcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *ThresholdsWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("thresholds file changed",
				slog.String("op", event.Op.String()),
				slog.String("path", event.Name),
			)
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			w.reload(ctx)
			w.mu.Lock()
			w.reloads++
			w.mu.Unlock()
		}
	}
}

func (w *ThresholdsWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
