// Package walog implements the write-ahead log: the durable,
// append-only record of every entry accepted into a column family's
// MemStore.
package walog

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/wcstore/wcstore/internal/cell"
)

// ErrClosed is returned by operations attempted after Close.
var ErrClosed = errors.New("walog: closed")

// WAL is an append-only, length-prefixed log of cell.Entry records.
//
// Append writes synchronously and returns only once the bytes have
// reached the operating system's file buffer; the WAL is the engine's
// durability boundary (spec: no fsync of data files is required).
type WAL struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// Open creates or opens the log at path. If the file already exists its
// prior contents are preserved; call Replay to recover them.
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &WAL{path: path, file: f}, nil
}

// Append serializes entry and writes it to the tail of the log. It
// returns only after the write reaches the OS buffer; on error the
// caller must not record the entry in memory.
func (w *WAL) Append(e cell.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	return cell.WriteEntry(w.file, e)
}

// Replay reads every previously appended entry in append order. A
// truncated trailing record (torn by a crash mid-write) stops replay
// at the last complete record instead of returning an error.
func (w *WAL) Replay() ([]cell.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	r := bufio.NewReader(w.file)

	var entries []cell.Entry
	for {
		e, err := cell.ReadEntry(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, err
		}
		entries = append(entries, e)
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	return entries, nil
}

// Truncate empties the log, used after a successful flush.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	_, err := w.file.Seek(0, io.SeekStart)
	return err
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
