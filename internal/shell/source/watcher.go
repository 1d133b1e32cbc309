package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the file must be quiet before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// Watcher calls onChange when the content of a module file changes.
// It watches the parent directory so editors that save by renaming a
// temporary file over the original are noticed.
type Watcher struct {
	source   *FileSource
	debounce time.Duration
	logger   *slog.Logger
	onChange func(ctx context.Context)

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	lastHash  string

	mu        sync.Mutex
	pending   bool
	lastEvent time.Time
}

// NewWatcher creates a Watcher for source.
func NewWatcher(source *FileSource, onChange func(ctx context.Context), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:   source,
		debounce: 500 * time.Millisecond,
		logger:   slog.Default(),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "module_watcher", "path", source.Path())
	return w
}

// Start begins watching the module file.
func (w *Watcher) Start() error {
	hash, err := w.source.Hash(context.Background())
	if err != nil {
		return fmt.Errorf("module watcher: initial hash: %w", err)
	}
	w.lastHash = hash

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("module watcher: create fsnotify: %w", err)
	}
	w.fsWatcher = fsw

	dir := filepath.Dir(w.source.Path())
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("module watcher: watch %s: %w", dir, err)
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("module watcher started", "debounce", w.debounce)
	return nil
}

// Stop terminates the watcher and waits for the loop to exit. It is safe to
// call more than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	target := filepath.Clean(w.source.Path())

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = true
				w.lastEvent = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("module watcher error", "error", err)

		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	ready := w.pending && time.Since(w.lastEvent) >= w.debounce
	if ready {
		w.pending = false
	}
	w.mu.Unlock()

	if !ready {
		return
	}

	ctx := context.Background()
	hash, err := w.source.Hash(ctx)
	if err != nil {
		// The file may be mid-rename; the next event retries.
		w.logger.Warn("module watcher: hash failed", "error", err)
		return
	}
	if hash == w.lastHash {
		return
	}
	w.lastHash = hash

	w.logger.Info("module file changed")
	w.onChange(ctx)
}
