// Package watch reports changes to individual files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which drops a watch placed on the file itself. A Watcher
// therefore watches each file's directory and filters events down to the
// files it was asked about. Bursts of events on one file are coalesced
// into a single Event after a quiet period.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/lexrope/internal/logging"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event on a file
// before it is reported. Zero reports every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithBufferSize sets the capacity of the event channel.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

// pendingEvent tracks a debounced event.
type pendingEvent struct {
	event Event
	timer *time.Timer
}

// Watcher watches a set of files.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	debounce time.Duration
	bufSize  int
	logger   *logging.Logger

	files   map[string]bool
	dirs    map[string]int
	pending map[string]*pendingEvent

	events chan Event
	errors chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	w := &Watcher{
		debounce: DefaultDebounce,
		bufSize:  64,
		logger:   logging.Nop(),
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		pending:  make(map[string]*pendingEvent),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("watch")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w.fsw = fsw
	w.events = make(chan Event, w.bufSize)
	w.errors = make(chan error, w.bufSize)

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Add starts watching the regular file at path.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrPathNotExist)
		}
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[abs] {
		return fmt.Errorf("%s: %w", path, ErrAlreadyWatching)
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	w.logger.Debug("watching %s", abs)
	return nil
}

// Remove stops watching the file at path.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.files[abs] {
		return fmt.Errorf("%s: %w", path, ErrNotWatching)
	}
	delete(w.files, abs)
	if p, ok := w.pending[abs]; ok {
		p.timer.Stop()
		delete(w.pending, abs)
	}

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// Files returns the watched files.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	return files
}

// Events returns the event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher. Pending debounced events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.closedWg.Wait()

	close(w.events)
	close(w.errors)

	return w.fsw.Close()
}

// Run calls fn for each event until ctx is done or the watcher is closed.
// Watcher errors are logged. An error from fn stops Run and is returned.
func (w *Watcher) Run(ctx context.Context, fn func(Event) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.events:
			if !ok {
				return nil
			}
			if err := fn(ev); err != nil {
				return err
			}
		case err, ok := <-w.errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}
	path := filepath.Clean(fsEvent.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.files[path] {
		return
	}

	if w.debounce == 0 {
		w.sendEvent(Event{Path: path, Op: op, Time: time.Now()})
		return
	}

	if p, ok := w.pending[path]; ok {
		p.event.Op |= op
		p.event.Time = time.Now()
		p.timer.Reset(w.debounce)
		return
	}

	p := &pendingEvent{event: Event{Path: path, Op: op, Time: time.Now()}}
	p.timer = time.AfterFunc(w.debounce, func() { w.flush(path, p) })
	w.pending[path] = p
}

// flush reports a pending event whose quiet period has elapsed.
func (w *Watcher) flush(path string, p *pendingEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.pending[path] != p {
		return
	}
	delete(w.pending, path)
	w.sendEvent(p.event)
}

// sendEvent queues an event. Must be called with w.mu held.
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("event channel full, dropping %s on %s", event.Op, event.Path)
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}
