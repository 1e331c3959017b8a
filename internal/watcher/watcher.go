package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of writes into a single Event.
const DefaultDebounce = 500 * time.Millisecond

// Event represents a change to the watched log file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors a single log file using OS-level notifications.
// The parent directory is watched rather than the file itself so that
// rotation (rename + create) and editors that replace files are seen.
type Watcher struct {
	fsw      *fsnotify.Watcher
	Events   chan Event
	path     string
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a Watcher for the file at path.
func New(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		fsw:      fsw,
		Events:   make(chan Event, 16),
		path:     abs,
		debounce: DefaultDebounce,
		logger:   logger,
	}, nil
}

// SetDebounce changes the quiet period before an Event is emitted.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins listening for file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	var (
		pending *Event
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			// Forward relevant events (write, create, remove, rename).
			switch {
			case ev.Op&fsnotify.Write != 0,
				ev.Op&fsnotify.Create != 0,
				ev.Op&fsnotify.Remove != 0,
				ev.Op&fsnotify.Rename != 0:
				pending = &Event{Path: w.path, Op: ev.Op}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C
			}

		case <-fire:
			fire = nil
			if pending == nil {
				continue
			}
			select {
			case w.Events <- *pending:
			case <-ctx.Done():
				return
			}
			pending = nil

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
