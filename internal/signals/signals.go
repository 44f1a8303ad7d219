// Package signals lets another terminal stop the running execution cycle by
// dropping a file into the state directory's signals folder.
package signals

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StopFile is the name of the file that cancels the running cycle.
const StopFile = "stop"

// pollInterval is how often the stop file is checked when the platform
// watcher is unavailable.
const pollInterval = 500 * time.Millisecond

// Watcher watches the signals directory and cancels the context of the
// cycle currently being tracked when a stop file appears.
type Watcher struct {
	dir string

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// Dir returns the signals directory under stateDir.
func Dir(stateDir string) string {
	return filepath.Join(stateDir, "signals")
}

// NewWatcher creates the signals directory and starts watching it. If the
// platform watcher cannot be started it falls back to polling for the stop
// file.
func NewWatcher(stateDir string) (*Watcher, error) {
	dir := Dir(stateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	w := newWatcher(dir)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[signals] WARNING: file watcher unavailable, polling: %v", err)
		w.startPolling(pollInterval)
		return w, nil
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		log.Printf("[signals] WARNING: cannot watch %s, polling: %v", dir, err)
		w.startPolling(pollInterval)
		return w, nil
	}
	w.watcher = fw

	w.wg.Add(1)
	go w.watch()
	return w, nil
}

func newWatcher(dir string) *Watcher {
	return &Watcher{dir: dir, done: make(chan struct{})}
}

func (w *Watcher) startPolling(interval time.Duration) {
	w.wg.Add(1)
	go w.poll(interval)
}

// poll triggers once per Clear when the stop file exists.
func (w *Watcher) poll(interval time.Duration) {
	defer w.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			stopped := w.stopped
			w.mu.Unlock()
			if stopped {
				continue
			}
			if _, err := os.Stat(filepath.Join(w.dir, StopFile)); err == nil {
				w.trigger()
			}
		}
	}
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == StopFile && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[signals] watcher error: %v", err)
		}
	}
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.cancel != nil {
		log.Printf("[signals] stop signal received, cancelling cycle")
		w.cancel()
	}
}

// Track clears any pending stop signal and returns a context that is
// cancelled when a stop file appears. Call release when the cycle ends.
func (w *Watcher) Track(parent context.Context) (ctx context.Context, release func()) {
	w.Clear()

	ctx, cancel := context.WithCancel(parent)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	return ctx, func() {
		w.mu.Lock()
		w.cancel = nil
		w.mu.Unlock()
		cancel()
	}
}

// Stopped reports whether a stop signal arrived since the last Clear.
func (w *Watcher) Stopped() bool {
	if _, err := os.Stat(filepath.Join(w.dir, StopFile)); err == nil {
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// Clear removes the stop file and resets the signal state.
func (w *Watcher) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = false
	_ = os.Remove(filepath.Join(w.dir, StopFile))
}

// SendStop writes the stop file. Used by `troupe stop` from another terminal.
func SendStop(stateDir string) error {
	dir := Dir(stateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, StopFile), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Close stops watching.
func (w *Watcher) Close() {
	select {
	case <-w.done:
		return
	default:
		close(w.done)
	}
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}
