// Package memstore implements the mutable, ordered in-memory store
// backed by a write-ahead log.
package memstore

import (
	"bytes"
	"sort"
	"sync"

	"github.com/wcstore/wcstore/internal/cell"
	"github.com/wcstore/wcstore/internal/walog"
)

// MemStore is the ordered map from cell.Key to cell.Value, fronted by a
// WAL. Every write goes to the WAL first, then into the skip list: WAL
// append strictly happens-before the in-memory insert.
type MemStore struct {
	mu   sync.RWMutex
	wal  *walog.WAL
	list *skipList
}

// Open opens the WAL at walPath, replays it, and returns a MemStore
// containing every replayed entry.
func Open(walPath string) (*MemStore, error) {
	w, err := walog.Open(walPath)
	if err != nil {
		return nil, err
	}

	entries, err := w.Replay()
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	m := &MemStore{wal: w, list: newSkipList()}
	for _, e := range entries {
		m.list.put(e.Key, e.Value)
	}
	return m, nil
}

// Append writes entry to the WAL, then inserts it into the ordered map.
// If the WAL append fails the in-memory insert does not happen.
func (m *MemStore) Append(e cell.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.wal.Append(e); err != nil {
		return err
	}
	m.list.put(e.Key, e.Value)
	return nil
}

// Len returns the number of entries currently held.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.len()
}

// IsEmpty reports whether Len() == 0.
func (m *MemStore) IsEmpty() bool {
	return m.Len() == 0
}

// SizeBytes returns the summed (row+column+8-byte timestamp+value) size
// of every entry currently held.
func (m *MemStore) SizeBytes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.size
}

// GetFull returns the cell value for the highest timestamp currently
// held for (row, column), or false if none is held.
func (m *MemStore) GetFull(row, column []byte) (cell.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best cell.Value
	found := false
	var bestTs uint64
	for cur := m.list.head.next[0]; cur != nil; cur = cur.next[0] {
		if bytes.Equal(cur.key.Row, row) && bytes.Equal(cur.key.Column, column) {
			if !found || cur.key.Timestamp > bestTs {
				best = cur.value
				bestTs = cur.key.Timestamp
				found = true
			}
		}
	}
	return best, found
}

// VersionedValue pairs a timestamp with the value held at it.
type VersionedValue struct {
	Timestamp uint64
	Value     cell.Value
}

// GetVersionsFull returns every (timestamp, value) held for (row, column).
func (m *MemStore) GetVersionsFull(row, column []byte) []VersionedValue {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []VersionedValue
	for cur := m.list.head.next[0]; cur != nil; cur = cur.next[0] {
		if bytes.Equal(cur.key.Row, row) && bytes.Equal(cur.key.Column, column) {
			out = append(out, VersionedValue{Timestamp: cur.key.Timestamp, Value: cur.value})
		}
	}
	return out
}

// ScanRowFull returns every (key, value) entry whose row equals the
// argument.
func (m *MemStore) ScanRowFull(row []byte) []cell.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []cell.Entry
	for cur := m.list.head.next[0]; cur != nil; cur = cur.next[0] {
		if bytes.Equal(cur.key.Row, row) {
			out = append(out, cell.Entry{Key: cur.key, Value: cur.value})
		}
	}
	return out
}

// RowKeysInRange returns the set of distinct row keys k with
// start <= k <= end present in memory.
func (m *MemStore) RowKeysInRange(start, end []byte) [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var out [][]byte
	for cur := m.list.head.next[0]; cur != nil; cur = cur.next[0] {
		row := cur.key.Row
		if bytes.Compare(row, start) < 0 || bytes.Compare(row, end) > 0 {
			continue
		}
		if !seen[string(row)] {
			seen[string(row)] = true
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// DrainAll returns every held entry in ascending key order, resets the
// MemStore to empty, and truncates the WAL. It is atomic with respect to
// concurrent readers: after return, the MemStore is empty.
func (m *MemStore) DrainAll() ([]cell.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.list.entries()
	if err := m.wal.Truncate(); err != nil {
		return nil, err
	}
	m.list.clear()
	return entries, nil
}

// Flush atomically hands the current contents to writeFn in ascending
// key order. If writeFn succeeds, the WAL is truncated and the MemStore
// cleared within the same critical section: a concurrent reader sees
// either the pre-flush generation or the post-flush empty MemStore,
// never a partial one. If writeFn fails, neither the WAL nor the
// MemStore is touched, so a retried flush observes identical state.
// A no-op (writeFn is not called) when the MemStore is empty.
func (m *MemStore) Flush(writeFn func([]cell.Entry) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.list.len() == 0 {
		return nil
	}
	entries := m.list.entries()
	if err := writeFn(entries); err != nil {
		return err
	}
	if err := m.wal.Truncate(); err != nil {
		return err
	}
	m.list.clear()
	return nil
}

// Close closes the underlying WAL.
func (m *MemStore) Close() error {
	return m.wal.Close()
}
