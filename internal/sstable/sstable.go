// Package sstable implements creation and whole-file reading of
// immutable, sorted SSTable files.
//
// File format: a big-endian 32-bit entry count, followed by that many
// entries, each a length-prefixed key and a length-prefixed value
// (cell.EncodeEntry framing, without the outer WAL length prefix).
package sstable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wcstore/wcstore/internal/cell"
)

// Create writes a new SSTable at path containing entries, which the
// caller must supply pre-sorted in ascending key order; Create does not
// re-sort them.
func Create(path string, entries []cell.Entry) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("sstable: create %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	countBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(countBuf, uint32(len(entries)))
	buf.Write(countBuf)

	for _, e := range entries {
		k := cell.EncodeKey(e.Key)
		v := cell.EncodeValue(e.Value)

		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(k)))
		buf.Write(lenBuf)
		buf.Write(k)

		binary.BigEndian.PutUint32(lenBuf, uint32(len(v)))
		buf.Write(lenBuf)
		buf.Write(v)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("sstable: write %s: %w", path, err)
	}
	return nil
}

// Reader holds every entry of an SSTable, loaded into memory in one pass
// at Open time. Subsequent lookups are in-memory scans.
type Reader struct {
	path    string
	entries []cell.Entry
}

// Open loads and deserializes every entry in the file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sstable: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("sstable: read %s: %w", path, err)
	}

	if len(data) < 4 {
		return nil, fmt.Errorf("sstable: %s: %w", path, cell.ErrCorruption)
	}
	count := binary.BigEndian.Uint32(data)
	off := 4

	entries := make([]cell.Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < off+4 {
			return nil, fmt.Errorf("sstable: %s: %w", path, cell.ErrCorruption)
		}
		keyLen := int(binary.BigEndian.Uint32(data[off:]))
		off += 4
		if len(data) < off+keyLen {
			return nil, fmt.Errorf("sstable: %s: %w", path, cell.ErrCorruption)
		}
		key, _, err := cell.DecodeKey(data[off : off+keyLen])
		if err != nil {
			return nil, fmt.Errorf("sstable: %s: %w", path, err)
		}
		off += keyLen

		if len(data) < off+4 {
			return nil, fmt.Errorf("sstable: %s: %w", path, cell.ErrCorruption)
		}
		valLen := int(binary.BigEndian.Uint32(data[off:]))
		off += 4
		if len(data) < off+valLen {
			return nil, fmt.Errorf("sstable: %s: %w", path, cell.ErrCorruption)
		}
		value, _, err := cell.DecodeValue(data[off : off+valLen])
		if err != nil {
			return nil, fmt.Errorf("sstable: %s: %w", path, err)
		}
		off += valLen

		entries = append(entries, cell.Entry{Key: key, Value: value})
	}

	return &Reader{path: path, entries: entries}, nil
}

// Path returns the file path this reader was opened from.
func (r *Reader) Path() string { return r.path }

// GetFull returns the value of the highest timestamp for (row, column)
// in this file.
func (r *Reader) GetFull(row, column []byte) (cell.Value, bool) {
	var best cell.Value
	found := false
	var bestTs uint64
	for _, e := range r.entries {
		if bytes.Equal(e.Key.Row, row) && bytes.Equal(e.Key.Column, column) {
			if !found || e.Key.Timestamp > bestTs {
				best = e.Value
				bestTs = e.Key.Timestamp
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

// GetVersionsFull returns every (timestamp, value) for (row, column) in
// descending timestamp order.
func (r *Reader) GetVersionsFull(row, column []byte) []VersionedValue {
	var out []VersionedValue
	for _, e := range r.entries {
		if bytes.Equal(e.Key.Row, row) && bytes.Equal(e.Key.Column, column) {
			out = append(out, VersionedValue{Timestamp: e.Key.Timestamp, Value: e.Value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// ColumnEntry is a single (column, timestamp, value) tuple from a row scan.
type ColumnEntry struct {
	Column    []byte
	Timestamp uint64
	Value     cell.Value
}

// ScanRowFull returns every (column, timestamp, value) entry with a
// matching row.
func (r *Reader) ScanRowFull(row []byte) []ColumnEntry {
	var out []ColumnEntry
	for _, e := range r.entries {
		if bytes.Equal(e.Key.Row, row) {
			out = append(out, ColumnEntry{Column: e.Key.Column, Timestamp: e.Key.Timestamp, Value: e.Value})
		}
	}
	return out
}

// ScanAll returns every entry in the file.
func (r *Reader) ScanAll() []cell.Entry {
	out := make([]cell.Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ScanRange returns every entry whose row falls in [startRow, endRow].
func (r *Reader) ScanRange(startRow, endRow []byte) []cell.Entry {
	var out []cell.Entry
	for _, e := range r.entries {
		if bytes.Compare(e.Key.Row, startRow) >= 0 && bytes.Compare(e.Key.Row, endRow) <= 0 {
			out = append(out, e)
		}
	}
	return out
}

// RowKeysInRange returns the distinct row keys k with startRow <= k <=
// endRow present in this file.
func (r *Reader) RowKeysInRange(startRow, endRow []byte) [][]byte {
	seen := make(map[string]bool)
	var out [][]byte
	for _, e := range r.entries {
		row := e.Key.Row
		if bytes.Compare(row, startRow) < 0 || bytes.Compare(row, endRow) > 0 {
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
