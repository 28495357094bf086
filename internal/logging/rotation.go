package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig sets when the log file rotates and how many old files stay.
type RotationConfig struct {
	// MaxSizeMB is the size at which the file is rotated. 0 never rotates.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept as <file>.1 .. <file>.N.
	// 0 truncates the log on rotation instead.
	MaxBackups int
}

// DefaultRotationConfig keeps three 10 MB backups.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter appends to a log file. When a write would take a non-empty
// file past the size limit, the file becomes <file>.1, older backups move up
// by one, and a new file is started. It is safe for concurrent use.
type RotatingWriter struct {
	path    string
	limit   int64
	backups int

	mu   sync.Mutex
	f    *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating it and its directory
// if needed.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{
		path:    path,
		limit:   int64(cfg.MaxSizeMB) << 20,
		backups: max(cfg.MaxBackups, 0),
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("inspecting log file: %w", err)
	}
	w.f, w.size = f, info.Size()
	return nil
}

// Write appends p, rotating first when needed. If rotation fails the entry
// still goes to whichever file is open. Write fails with os.ErrClosed after
// Close.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}
	if w.full(len(p)) {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "conductor: log rotation failed: %v\n", err)
			if w.f == nil {
				return 0, err
			}
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// full reports whether n more bytes would push a non-empty file past the
// limit. A single oversized entry is written to an empty file as is.
func (w *RotatingWriter) full(n int) bool {
	return w.limit > 0 && w.size > 0 && w.size+int64(n) > w.limit
}

// rotate retires the current file and opens a fresh one. mu must be held.
func (w *RotatingWriter) rotate() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	w.f = nil

	var err error
	if w.backups == 0 {
		err = os.Remove(w.path)
	} else {
		w.shiftBackups()
		err = os.Rename(w.path, w.backup(1))
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		if openErr := w.open(); openErr != nil {
			return errors.Join(err, openErr)
		}
		return err
	}
	return w.open()
}

// shiftBackups drops the oldest backup and renames the rest up by one.
// Gaps in the sequence are skipped.
func (w *RotatingWriter) shiftBackups() {
	_ = os.Remove(w.backup(w.backups))
	for i := w.backups - 1; i >= 1; i-- {
		_ = os.Rename(w.backup(i), w.backup(i+1))
	}
}

func (w *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// Close flushes the file to disk and closes it. Later calls return nil.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil
	return errors.Join(f.Sync(), f.Close())
}

// CurrentSize returns the size of the active file in bytes.
func (w *RotatingWriter) CurrentSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// FilePath returns the active file's path.
func (w *RotatingWriter) FilePath() string {
	return w.path
}
