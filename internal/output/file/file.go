// Package file appends analysis reports to an NDJSON file, keeping up to
// nine rotated generations beside it.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/crimson-sun/dropoff/internal/engine/compactor"
	"github.com/crimson-sun/dropoff/internal/model"
	"github.com/crimson-sun/dropoff/internal/output"
)

const (
	defaultBufSize = 64 * 1024
	generations    = 9
)

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize rotates the file before a report would push it past limit
// bytes. A report larger than limit still lands whole in a fresh file.
// Zero keeps a single growing file.
func WithMaxSize(limit int64) Option {
	return func(o *Output) { o.limit = limit }
}

// WithBufSize sets the size of the write buffer.
func WithBufSize(n int) Option {
	return func(o *Output) { o.bufSize = n }
}

// Output writes one report per line. It is safe for concurrent use.
type Output struct {
	path      string
	verbosity compactor.Verbosity
	limit     int64
	bufSize   int

	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	size int64 // bytes in the live file
}

// New opens path in append mode, creating it if needed. Reports from
// earlier runs are kept.
func New(path string, verbosity compactor.Verbosity, opts ...Option) (*Output, error) {
	o := &Output{path: path, verbosity: verbosity, bufSize: defaultBufSize}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.open(); err != nil {
		return nil, fmt.Errorf("file output: %w", err)
	}
	return o, nil
}

// Write returns once the report has reached the file.
func (o *Output) Write(_ context.Context, report model.Report) error {
	line, err := json.Marshal(output.FormatReport(report, o.verbosity))
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	line = append(line, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.full(int64(len(line))) {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}
	n, err := o.w.Write(line)
	o.size += int64(n)
	if err == nil {
		err = o.w.Flush()
	}
	if err != nil {
		return fmt.Errorf("file output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return errors.Join(o.w.Flush(), o.f.Close())
}

// full reports whether n more bytes would overflow a non-empty live file.
func (o *Output) full(n int64) bool {
	return o.limit > 0 && o.size > 0 && o.size+n > o.limit
}

func (o *Output) open() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	o.f, o.w, o.size = f, bufio.NewWriterSize(f, o.bufSize), info.Size()
	return nil
}

// generation names the n-th rotated file; generation 0 is the live file.
func (o *Output) generation(n int) string {
	if n == 0 {
		return o.path
	}
	return fmt.Sprintf("%s.%d", o.path, n)
}

// rotate shifts every generation up by one, dropping the oldest, and opens
// a new live file. Missing generations are skipped.
func (o *Output) rotate() error {
	if err := errors.Join(o.w.Flush(), o.f.Close()); err != nil {
		return err
	}
	if err := os.Remove(o.generation(generations)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for n := generations; n > 0; n-- {
		err := os.Rename(o.generation(n-1), o.generation(n))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return o.open()
}
