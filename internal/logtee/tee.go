// Package logtee duplicates command output to a log file. A Tee is
// constructed explicitly by the caller and closed when the command
// finishes; nothing in this package holds global state.
package logtee

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileBufferSize = 32 << 10

// Tee writes everything it receives to a console writer and, buffered,
// to a log file. Writes are safe for concurrent use.
type Tee struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	buf     *bufio.Writer
	closed  bool
}

// New opens (or creates) the log file at path and returns a Tee that
// mirrors writes to console. The file is opened in append mode so
// consecutive runs share one log.
func New(console io.Writer, path string) (*Tee, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	t := &Tee{
		console: console,
		file:    f,
		buf:     bufio.NewWriterSize(f, fileBufferSize),
	}
	t.writeHeader()
	return t, nil
}

// writeHeader marks the start of a run in the log file only.
func (t *Tee) writeHeader() {
	fmt.Fprintf(t.buf, "----- run started %s -----\n", time.Now().UTC().Format(time.RFC3339))
}

// Write implements io.Writer. The console write happens first so the
// user sees output even when the disk is slow.
func (t *Tee) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.console.Write(p)
	if err != nil {
		return n, err
	}
	if t.closed {
		return n, nil
	}
	if _, ferr := t.buf.Write(p); ferr != nil {
		return n, fmt.Errorf("write log file: %w", ferr)
	}
	return n, nil
}

// Flush forces buffered log data to disk.
func (t *Tee) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	return t.buf.Flush()
}

// Path returns the log file path.
func (t *Tee) Path() string {
	return t.file.Name()
}

// Close flushes the buffer and closes the log file. Writes after Close
// still reach the console. Close is idempotent.
func (t *Tee) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	flushErr := t.buf.Flush()
	closeErr := t.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush log file: %w", flushErr)
	}
	return closeErr
}
