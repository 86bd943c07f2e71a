package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/cscope"
	"github.com/zheng/csgraph/internal/storage"
)

// Watcher re-indexes a cscope database whenever the file is rewritten
type Watcher struct {
	dbPath    string
	indexPath string
	parseOpts []cscope.Option
	fsWatcher *fsnotify.Watcher

	// Debouncing
	debounceDelay time.Duration
	pendingMu     sync.Mutex
	pending       bool
	debounceTimer *time.Timer

	// Rebuilds never overlap
	runMu sync.Mutex

	// Callbacks
	onRebuildStart func()
	onRebuildDone  func(stats cscope.Stats, duration time.Duration)
	onError        func(error)

	ctx  context.Context
	done chan struct{}
}

// WatcherOption configures the watcher
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithParseOptions sets the options used to parse the database
func WithParseOptions(opts ...cscope.Option) WatcherOption {
	return func(w *Watcher) {
		w.parseOpts = opts
	}
}

// WithOnRebuildStart sets the callback for when re-indexing starts
func WithOnRebuildStart(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.onRebuildStart = fn
	}
}

// WithOnRebuildDone sets the callback for when re-indexing completes
func WithOnRebuildDone(fn func(stats cscope.Stats, duration time.Duration)) WatcherOption {
	return func(w *Watcher) {
		w.onRebuildDone = fn
	}
}

// WithOnError sets the callback for errors
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a Watcher for the cscope database at dbPath that writes the
// SQLite index at indexPath. cscope replaces its output by renaming a new
// file over it, so the containing directory is watched.
func New(dbPath, indexPath string, opts ...WatcherOption) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		dbPath:        filepath.Clean(dbPath),
		indexPath:     indexPath,
		fsWatcher:     fsWatcher,
		debounceDelay: 500 * time.Millisecond, // Default debounce
		ctx:           context.Background(),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := fsWatcher.Add(filepath.Dir(w.dbPath)); err != nil {
		fsWatcher.Close()
		return nil, errors.Errorf("failed to watch %s: %w", filepath.Dir(w.dbPath), err)
	}

	return w, nil
}

// Start begins watching for changes. ctx carries the logger and is passed
// to every rebuild.
func (w *Watcher) Start(ctx context.Context) {
	w.ctx = ctx
	go w.eventLoop()
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)

	w.pendingMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.pendingMu.Unlock()

	return w.fsWatcher.Close()
}

// Rebuild parses the database and replaces the index contents
func (w *Watcher) Rebuild(ctx context.Context) (cscope.Stats, error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	store, err := cscope.Load(ctx, w.dbPath, w.parseOpts...)
	if err != nil {
		return cscope.Stats{}, errors.Errorf("failed to load database: %w", err)
	}

	db, err := storage.Open(ctx, w.indexPath)
	if err != nil {
		return cscope.Stats{}, errors.Errorf("failed to open index: %w", err)
	}
	defer db.Close()

	if err := db.SaveStore(ctx, store, w.dbPath); err != nil {
		return cscope.Stats{}, errors.Errorf("failed to save index: %w", err)
	}
	return store.Stats(), nil
}

// eventLoop handles file system events
func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// handleEvent processes a single file system event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.dbPath {
		return
	}

	// A removed database has nothing to index; its replacement arrives as Create
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	slogctx.Debug(w.ctx, "database changed", "path", event.Name, "op", event.Op.String())

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending = true

	// Reset debounce timer
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.triggerRebuild)
}

// triggerRebuild runs the rebuild after debounce
func (w *Watcher) triggerRebuild() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = false
	w.pendingMu.Unlock()

	if !pending {
		return
	}

	select {
	case <-w.done:
		return
	default:
	}

	if w.onRebuildStart != nil {
		w.onRebuildStart()
	}

	startTime := time.Now()

	stats, err := w.Rebuild(w.ctx)
	if err != nil {
		if w.onError != nil {
			w.onError(errors.Errorf("rebuild failed: %w", err))
		}
		return
	}

	if w.onRebuildDone != nil {
		w.onRebuildDone(stats, time.Since(startTime))
	}
}
