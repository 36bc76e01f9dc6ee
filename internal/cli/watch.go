package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long a file must stay quiet after a change before
// the watcher fires.
const defaultDebounce = 500 * time.Millisecond

// Watcher calls a callback whenever a file changes.
//
// The file's directory is watched rather than the file itself, so editors
// that save by writing a new file and renaming it over the old one are
// still seen.
type Watcher struct {
	file     string
	callback func() error
	debounce time.Duration
	logger   *slog.Logger

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for file. Callback errors are logged, not
// returned: a broken template should not stop the watch.
func NewWatcher(file string, debounce time.Duration, logger *slog.Logger, callback func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	absPath, err := filepath.Abs(file)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Watch the directory containing the file
	dir := filepath.Dir(absPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		debounce: debounce,
		logger:   logger,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start runs the callback once and then again after every change, until
// Stop is called.
func (w *Watcher) Start() {
	w.fire()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		debounceTimer := time.NewTimer(w.debounce)
		debounceTimer.Stop()
		var debounceCh <-chan time.Time

		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				eventPath, err := filepath.Abs(event.Name)
				if err == nil && eventPath == w.file {
					// Debounce: reset timer on each event
					debounceTimer.Reset(w.debounce)
					debounceCh = debounceTimer.C
				}

			case <-debounceCh:
				// select picks among ready cases at random; never fire
				// once Stop has begun.
				select {
				case <-w.done:
					return
				default:
				}
				w.fire()
				debounceCh = nil

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Error("watch error", "file", w.file, "error", err)

			case <-w.done:
				debounceTimer.Stop()
				return
			}
		}
	}()
}

func (w *Watcher) fire() {
	if err := w.callback(); err != nil {
		w.logger.Error("watch callback failed", "file", w.file, "error", err)
	}
}

// Stop stops watching and waits for a callback in progress to return.
// No callback runs after Stop returns. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	w.wg.Wait()
	return err
}
