package classify

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/conductor/internal/logging"
)

// reloadDebounce collapses the burst of events editors emit for one save.
const reloadDebounce = 50 * time.Millisecond

// Watcher reloads a phrase file into a TableClassifier whenever it changes
// on disk. A file that fails to load leaves the current table in place.
type Watcher struct {
	path       string
	classifier *TableClassifier
	logger     *logging.Logger
	watcher    *fsnotify.Watcher

	mu       sync.Mutex
	onReload func(*Table, error)

	started  atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for path. The file's directory is watched so
// that atomic replace-by-rename saves are seen. A nil logger discards logs.
func NewWatcher(path string, classifier *TableClassifier, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving phrase file path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:       abs,
		classifier: classifier,
		logger:     logger.WithComponent("phrases").With("file", abs),
		watcher:    fw,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// SetReloadCallback registers fn to be called after every reload attempt
// with the new table, or nil and the load error.
func (w *Watcher) SetReloadCallback(fn func(*Table, error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	if w.started.CompareAndSwap(false, true) {
		go w.watchLoop()
	}
}

// Stop stops watching and waits for the loop to exit. Stop is idempotent
// and safe to call even if Start was never called.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.started.Load() {
			<-w.doneCh
		}
		_ = w.watcher.Close()
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.doneCh)

	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case <-w.stopCh:
			debounce.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(reloadDebounce)

		case <-debounce.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	table, err := LoadTable(w.path)
	if err != nil {
		w.logger.Warn("phrase reload failed, keeping current table", "error", err)
	} else {
		w.classifier.SetTable(table)
		w.logger.Info("phrase table reloaded", "phrases", table.Len())
	}

	w.mu.Lock()
	fn := w.onReload
	w.mu.Unlock()
	if fn != nil {
		fn(table, err)
	}
}
