// Package watcher subscribes to filesystem changes under one or more
// source roots and feeds qualifying events to a Debouncer.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
	"github.com/conneroisu/pagewatch/internal/logging"
)

// FileWatcher watches directory trees for file changes.
type FileWatcher struct {
	watcher    *fsnotify.Watcher
	filters    []FileFilter
	handlers   []ChangeHandler
	ignoreDirs map[string]bool
	logger     logging.Logger
	mutex      sync.RWMutex

	started   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	loopDone  chan struct{}
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Path       string
	Kind       EventKind
	ObservedAt time.Time
}

// EventKind represents the type of file change
type EventKind int

const (
	EventCreated EventKind = iota
	EventModified
	EventDeleted
	EventRenamed
)

// String returns the string representation of the EventKind
func (e EventKind) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	case EventRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a changed path qualifies
type FileFilter func(path string) bool

// ChangeHandler receives qualifying change events
type ChangeHandler func(event ChangeEvent)

// Options configures a FileWatcher.
type Options struct {
	// IgnoreDirs are directory base names that are never subscribed.
	IgnoreDirs []string
	Logger     logging.Logger
}

// New creates a new file watcher. Failure to allocate the OS watch handle
// is a watch error.
func New(opts Options) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, pwerrors.NewWatchError(pwerrors.CodeWatchSubscribe, "failed to create file watcher", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	ignore := make(map[string]bool, len(opts.IgnoreDirs))
	for _, dir := range opts.IgnoreDirs {
		ignore[dir] = true
	}

	return &FileWatcher{
		watcher:    w,
		filters:    make([]FileFilter, 0),
		handlers:   make([]ChangeHandler, 0),
		ignoreDirs: ignore,
		logger:     logger.WithComponent("watcher"),
		loopDone:   make(chan struct{}),
	}, nil
}

// AddFilter adds a file filter. All filters must pass for an event to qualify.
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

// AddRecursive subscribes root and every directory below it. A missing or
// unreadable root is a fatal watch error.
func (fw *FileWatcher) AddRecursive(root string) error {
	cleanRoot := filepath.Clean(root)

	info, err := os.Stat(cleanRoot)
	if err != nil {
		code := pwerrors.CodeWatchSubscribe
		if pwerrors.IsNotFound(err) {
			code = pwerrors.CodeWatchRootMissing
		}
		return pwerrors.NewWatchError(code, "cannot watch root", err).WithPath(cleanRoot)
	}
	if !info.IsDir() {
		return pwerrors.NewWatchError(pwerrors.CodeWatchSubscribe, "watch root is not a directory", nil).WithPath(cleanRoot)
	}

	err = filepath.WalkDir(cleanRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != cleanRoot && fw.ignoreDirs[d.Name()] {
			return filepath.SkipDir
		}

		return fw.watcher.Add(path)
	})
	if err != nil {
		return pwerrors.NewWatchError(pwerrors.CodeWatchSubscribe, "failed to subscribe", err).WithPath(cleanRoot)
	}

	return nil
}

// Start runs the event loop until ctx is done or the watcher is closed.
func (fw *FileWatcher) Start(ctx context.Context) {
	if !fw.started.CompareAndSwap(false, true) {
		return
	}

	go fw.watchLoop(ctx)
}

// Close releases the OS watch handle and waits for the event loop to
// exit. It is safe to call more than once.
func (fw *FileWatcher) Close() error {
	fw.closeOnce.Do(func() {
		fw.closeErr = fw.watcher.Close()
		if fw.started.Load() {
			<-fw.loopDone
		}
		fw.closed.Store(true)
	})

	return fw.closeErr
}

// Closed reports whether Close has completed.
func (fw *FileWatcher) Closed() bool {
	return fw.closed.Load()
}

// WatchList returns the directories currently subscribed.
func (fw *FileWatcher) WatchList() []string {
	return fw.watcher.WatchList()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	defer close(fw.loopDone)

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
			// Per-event errors never stop the loop.
			fw.logger.Debug(ctx, "ignoring watch error", "error", err.Error())
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(ctx context.Context, event fsnotify.Event) {
	// Attribute-only changes leave file contents alone.
	if event.Name == "" || event.Op == fsnotify.Chmod {
		return
	}

	if event.Has(fsnotify.Create) {
		fw.followNewDirectory(ctx, event.Name)
	}

	fw.mutex.RLock()
	filters := fw.filters
	handlers := fw.handlers
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	changeEvent := ChangeEvent{
		Path:       event.Name,
		Kind:       kindOf(event.Op),
		ObservedAt: time.Now(),
	}

	for _, handler := range handlers {
		handler(changeEvent)
	}
}

// followNewDirectory subscribes directories created after startup, since
// fsnotify does not recurse on its own.
func (fw *FileWatcher) followNewDirectory(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || fw.ignoreDirs[filepath.Base(path)] {
		return
	}

	if err := fw.AddRecursive(path); err != nil {
		fw.logger.Debug(ctx, "could not follow new directory", "path", path, "error", err.Error())
	}
}

func kindOf(op fsnotify.Op) EventKind {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreated
	case op.Has(fsnotify.Write):
		return EventModified
	case op.Has(fsnotify.Remove):
		return EventDeleted
	default:
		return EventRenamed
	}
}
