// Package rawlog tees the raw input stream to an append-only log file.
package rawlog

import (
	"fmt"
	"os"
)

// Log appends verbatim input lines to a persistent file. Writes go straight
// to the file descriptor with no buffering, so a concurrently tailing reader
// observes lines with minimal delay. All methods are safe on a nil receiver,
// which stands in for "no log configured".
type Log struct {
	f *os.File
}

// Open opens (or creates) the log file at path in append mode.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	return &Log{f: f}, nil
}

// WriteLine appends line followed by a newline. Write errors never interrupt
// the read loop.
func (l *Log) WriteLine(line []byte) {
	if l == nil {
		return
	}
	l.f.Write(line)         //nolint:errcheck
	l.f.Write([]byte{'\n'}) //nolint:errcheck
}

// WriteHeader appends a blank line followed by header.
func (l *Log) WriteHeader(header string) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.f, "\n%s\n", header) //nolint:errcheck
}

// Close releases the underlying file. Every exit path must call it; the tee
// never relies on an implicit flush at process exit.
func (l *Log) Close() {
	if l == nil {
		return
	}
	l.f.Close() //nolint:errcheck
}
