package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// RotatingWriter appends to a log file and rolls it over once it would grow
// past a size limit. Rolled files are kept as path.1 (newest) up to path.N
// (oldest); anything older is removed.
type RotatingWriter struct {
	path  string
	limit int64
	keep  int

	mu   sync.Mutex
	f    *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating its directory.
// maxSizeMB is the size at which the file is rolled over and maxFiles the
// number of rolled files kept.
func NewRotatingWriter(path string, maxSizeMB, maxFiles int) (*RotatingWriter, error) {
	if maxSizeMB <= 0 {
		return nil, fmt.Errorf("log file size limit must be positive, got %d MB", maxSizeMB)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{
		path:  path,
		limit: int64(maxSizeMB) << 20,
		keep:  max(maxFiles, 0),
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p, rolling the file over first if p would not fit. A record
// is never split across files.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.roll(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "hybridsearch: log rotation failed: %v\n", err)
		}
	}
	if w.f == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// Sync flushes the current file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Close closes the current file. Later writes reopen it.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.f = f
	w.size = info.Size()
	return nil
}

// roll shifts path.i to path.i+1 from the oldest down, then moves the live
// file to path.1 and reopens an empty one.
func (w *RotatingWriter) roll() error {
	if w.f != nil {
		if err := w.f.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		w.f = nil
	}

	if w.keep == 0 {
		if err := os.Truncate(w.path, 0); err != nil {
			return fmt.Errorf("failed to truncate log file: %w", err)
		}
		return w.open()
	}

	if err := os.Remove(w.backup(w.keep)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove oldest log file: %w", err)
	}
	for i := w.keep - 1; i >= 1; i-- {
		if err := os.Rename(w.backup(i), w.backup(i+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to shift log file: %w", err)
		}
	}
	if err := os.Rename(w.path, w.backup(1)); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return w.open()
}

func (w *RotatingWriter) backup(i int) string {
	return w.path + "." + strconv.Itoa(i)
}
