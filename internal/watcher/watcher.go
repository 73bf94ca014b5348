// Package watcher reloads the asset directory when its files change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/logging"
)

// DefaultDebounce groups editor save bursts into one reload.
const DefaultDebounce = 200 * time.Millisecond

// FileWatcher watches directories for changes and delivers debounced
// batches of events to its handlers.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	logger    logging.Logger
	mutex     sync.RWMutex
	stopOnce  sync.Once
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a changed path is of interest.
type FileFilter func(path string) bool

// ChangeHandler handles one debounced batch.
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// Debouncer groups rapid file changes together
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// NewFileWatcher creates a watcher. A non-positive delay uses DefaultDebounce.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	if debounceDelay <= 0 {
		debounceDelay = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Nop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInternalError, "creating file watcher", err).
			WithComponent("watcher")
	}

	return &FileWatcher{
		watcher: w,
		debouncer: &Debouncer{
			delay:  debounceDelay,
			events: make(chan ChangeEvent, 100),
			output: make(chan []ChangeEvent, 10),
		},
		logger: logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter. Events must pass every filter.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive watches root and every non-hidden directory below it.
func (fw *FileWatcher) AddRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotFound, "watching "+root, err).WithComponent("watcher")
	}
	if !info.IsDir() {
		return errors.NewValidationError(errors.ErrCodeInvalidPath, root+" is not a directory").
			WithComponent("watcher")
	}

	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Start starts the file watcher. It runs until ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.debouncer.start(ctx)
	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		fw.debouncer.mutex.Lock()
		if fw.debouncer.timer != nil {
			fw.debouncer.timer.Stop()
		}
		fw.debouncer.mutex.Unlock()
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(ctx, event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()
	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var modTime time.Time
	var size int64
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
		size = info.Size()
		// New directories are watched too.
		if info.IsDir() && event.Op&fsnotify.Create != 0 {
			if err := fw.AddRecursive(event.Name); err != nil {
				fw.logger.Warn(ctx, err, "Could not watch new directory", "path", event.Name)
			}
		}
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventTypeCreated
	case event.Op&fsnotify.Write != 0:
		eventType = EventTypeModified
	case event.Op&fsnotify.Remove != 0:
		eventType = EventTypeDeleted
	case event.Op&fsnotify.Rename != 0:
		eventType = EventTypeRenamed
	default:
		eventType = EventTypeModified
	}

	select {
	case fw.debouncer.events <- ChangeEvent{Type: eventType, Path: event.Name, ModTime: modTime, Size: size}:
	default:
		fw.logger.Debug(ctx, "Dropping file event, debouncer full", "path", event.Name)
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(ctx, events); err != nil {
					fw.logger.Error(ctx, err, "File watcher handler failed", "events", len(events))
				}
			}
		}
	}
}

func (d *Debouncer) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

// flush emits the pending events, the latest per path, ordered by path.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	latest := make(map[string]ChangeEvent, len(d.pending))
	for _, event := range d.pending {
		latest[event.Path] = event
	}
	events := make([]ChangeEvent, 0, len(latest))
	for _, event := range latest {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	select {
	case d.output <- events:
	default:
	}
	d.pending = d.pending[:0]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// NoHiddenFilter rejects dot files. Dot directories are never watched.
func NoHiddenFilter(path string) bool {
	return !isHidden(filepath.Base(path))
}

// NoTempFilter rejects editor swap and backup files.
func NoTempFilter(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return false
	}
	return true
}

// Reloader is satisfied by the asset store.
type Reloader interface {
	Reload() error
}

// Purger is satisfied by the page cache.
type Purger interface {
	Purge()
}

// ReloadHandler reloads the assets and then drops every cached page, since
// pages embed the asset list in their head.
func ReloadHandler(store Reloader, pages Purger, logger logging.Logger) ChangeHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(ctx context.Context, events []ChangeEvent) error {
		perf := logging.StartOperation(logger, "asset_reload")
		if err := store.Reload(); err != nil {
			perf.EndWithError(ctx, err)
			return err
		}
		if pages != nil {
			pages.Purge()
		}
		perf.End(ctx, "changed", len(events))
		return nil
	}
}

// WatchAssets watches dir and reloads store on every change until ctx is
// done. The returned watcher is already started.
func WatchAssets(ctx context.Context, dir string, store Reloader, pages Purger, logger logging.Logger) (*FileWatcher, error) {
	fw, err := NewFileWatcher(DefaultDebounce, logger)
	if err != nil {
		return nil, err
	}
	fw.AddFilter(NoHiddenFilter)
	fw.AddFilter(NoTempFilter)
	fw.AddHandler(ReloadHandler(store, pages, fw.logger))
	if err := fw.AddRecursive(dir); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	fw.Start(ctx)
	return fw, nil
}
