// Package file appends batch results to an NDJSON run log.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/crimson-sun/beacon/internal/model"
	"github.com/crimson-sun/beacon/internal/report"
)

const defaultBufSize = 64 * 1024 // 64KB

// Option configures a file Reporter.
type Option func(*Reporter)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(r *Reporter) { r.maxSize = bytes }
}

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(r *Reporter) { r.bufSize = bytes }
}

// Reporter writes one JSON line per batch result with buffered I/O and
// optional size-based rotation. The resulting file is a durable run history
// that survives database resets.
type Reporter struct {
	w         *bufio.Writer
	f         *os.File
	mu        sync.Mutex
	path      string
	verbosity report.Verbosity
	maxSize   int64 // 0 = no rotation
	written   int64
	bufSize   int
}

// New creates a file reporter appending NDJSON to the given path.
func New(path string, verbosity report.Verbosity, opts ...Option) (*Reporter, error) {
	r := &Reporter{
		path:      path,
		verbosity: verbosity,
		bufSize:   defaultBufSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.openFile(); err != nil {
		return nil, err
	}
	return r, nil
}

// Publish JSON-encodes the result and appends it as a line to the file.
func (r *Reporter) Publish(_ context.Context, res model.BatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(report.Trim(res, r.verbosity))
	if err != nil {
		return fmt.Errorf("file report: marshal: %w", err)
	}
	data = append(data, '\n')

	if r.maxSize > 0 && r.written+int64(len(data)) > r.maxSize {
		if err := r.rotate(); err != nil {
			return fmt.Errorf("file report: rotate: %w", err)
		}
	}

	n, err := r.w.Write(data)
	r.written += int64(n)
	if err != nil {
		return fmt.Errorf("file report: write: %w", err)
	}
	// One result per run; flush so the line is durable immediately.
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("file report: flush: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (r *Reporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return fmt.Errorf("file report: flush: %w", err)
	}
	return r.f.Close()
}

// openFile opens (or creates) the run log and wraps it in a bufio.Writer.
func (r *Reporter) openFile() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("file report: open %s: %w", r.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file report: stat %s: %w", r.path, err)
	}
	r.f = f
	r.w = bufio.NewWriterSize(f, r.bufSize)
	r.written = info.Size()
	return nil
}

// rotate flushes, closes the current file, renames it to {path}.1
// (shifting existing rotated files), and opens a new file.
func (r *Reporter) rotate() error {
	if err := r.w.Flush(); err != nil {
		return err
	}
	if err := r.f.Close(); err != nil {
		return err
	}

	// Shift existing rotated files: .2 → .3, .1 → .2, current → .1
	for i := 9; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", r.path, i)
		to := fmt.Sprintf("%s.%d", r.path, i+1)
		os.Rename(from, to) // ignore errors — file may not exist
	}
	if err := os.Rename(r.path, r.path+".1"); err != nil {
		return err
	}

	r.written = 0
	return r.openFile()
}
