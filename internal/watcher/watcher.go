// Package watcher reports settled changes below the library source tree.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory tree with fsnotify. Writes are debounced per
// path: an event is emitted only once size and mtime stop changing for
// SettleDelay, so half-copied downloads do not trigger work.
type Watcher struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	pending map[string]*pendingEvent // path -> pending event info
	mu      sync.Mutex               // protects pending map

	events   chan Event
	errors   chan error
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// pendingEvent tracks a path that may still be changing
type pendingEvent struct {
	kind    EventType
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a new file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		watcher: fw,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory and all of its subdirectories.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", path)
	}
	return w.watchDir(path)
}

// watchDir recursively watches a directory
func (w *Watcher) watchDir(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.opts.shouldIgnore(p) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(p); err != nil {
			w.logger.Error("failed to add watch", "path", p, "error", err)
			return nil
		}
		w.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watcher error dropped", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if w.opts.shouldIgnore(path) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// A rename is reported on the old name; the new name arrives as Create.
		w.cancelPending(path)
		w.emit(Event{Type: EventRemoved, Path: path})

	case event.Op&fsnotify.Create != 0:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			// Folders moved in whole produce no events for their contents.
			if err := w.watchDir(path); err != nil {
				w.logger.Warn("failed to watch new folder", "path", path, "error", err)
			}
		}
		w.startSettling(path, EventAdded)

	case event.Op&fsnotify.Write != 0:
		w.startSettling(path, EventModified)
	}
}

// startSettling (re)arms the settle timer for path.
func (w *Watcher) startSettling(path string, kind EventType) {
	info, err := os.Stat(path)
	if err != nil {
		w.cancelPending(path)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
		if p.kind == EventAdded {
			kind = EventAdded
		}
	}

	w.pending[path] = &pendingEvent{
		kind:    kind,
		size:    info.Size(),
		modTime: info.ModTime(),
		timer: time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		}),
	}
}

// checkSettled emits the event for path once it stopped changing.
func (w *Watcher) checkSettled(path string) {
	info, statErr := os.Stat(path)

	w.mu.Lock()
	p, exists := w.pending[path]
	if !exists {
		w.mu.Unlock()
		return
	}

	if statErr == nil && (info.Size() != p.size || !info.ModTime().Equal(p.modTime)) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
			w.checkSettled(path)
		})
		w.mu.Unlock()
		return
	}

	delete(w.pending, path)
	w.mu.Unlock()

	if statErr != nil {
		w.emit(Event{Type: EventRemoved, Path: path})
		return
	}
	w.emit(Event{
		Type:    p.kind,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
}

// cancelPending cancels a pending event
func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) emit(event Event) {
	w.logger.Debug("change settled", "type", event.Type.String(), "path", event.Path)
	select {
	case w.events <- event:
	case <-w.done:
	}
}

// Events returns the channel of settled changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of backend errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop releases the fsnotify watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
