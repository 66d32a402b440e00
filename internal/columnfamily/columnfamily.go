// Package columnfamily implements the per-column-family LSM engine: it
// routes writes to a MemStore+WAL pair, flushes to immutable SSTables,
// serves reads by merging every layer under MVCC, and runs compaction.
package columnfamily

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/wcstore/wcstore/internal/cell"
	"github.com/wcstore/wcstore/internal/compaction"
	"github.com/wcstore/wcstore/internal/memstore"
	"github.com/wcstore/wcstore/internal/sstable"
)

// ColumnFamily is the complete per-family engine. It is reference-counted
// by the caller holding a pointer to it; it is not meant to be copied.
type ColumnFamily struct {
	name string
	dir  string
	opts Options

	mem *memstore.MemStore

	tablesMu sync.RWMutex
	tables   []*sstable.Reader // ascending by sequence, oldest first

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	statsMu            sync.Mutex
	lastCompactionErr  error
	compactionErrCount uint64
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}

// Open creates <tableDir>/<name>/ if absent, opens and replays its WAL,
// loads every existing <digits>.sst file ascending by sequence, and
// spawns the background maintenance task.
func Open(tableDir, name string, opts Options) (*ColumnFamily, error) {
	opts.FillDefaults()

	dir := filepath.Join(tableDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("columnfamily %s: open: %w", name, err)
	}

	mem, err := memstore.Open(filepath.Join(dir, "wal.log"))
	if err != nil {
		return nil, fmt.Errorf("columnfamily %s: open: %w", name, err)
	}

	tables, err := loadTables(dir)
	if err != nil {
		_ = mem.Close()
		return nil, fmt.Errorf("columnfamily %s: open: %w", name, err)
	}

	cf := &ColumnFamily{
		name:   name,
		dir:    dir,
		opts:   opts,
		mem:    mem,
		tables: tables,
		stopCh: make(chan struct{}),
	}

	cf.wg.Add(1)
	go cf.maintenanceLoop()

	return cf, nil
}

// loadTables enumerates dir for files matching ^[0-9]{10}\.sst$, opens a
// Reader for each, and returns them sorted ascending by sequence number.
// Non-matching directory entries are ignored.
func loadTables(dir string) ([]*sstable.Reader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type found struct {
		seq  uint64
		path string
	}
	var names []found
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		seq, ok := sstable.ParseSeq(e.Name())
		if !ok {
			continue
		}
		names = append(names, found{seq: seq, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(names, func(i, j int) bool { return names[i].seq < names[j].seq })

	tables := make([]*sstable.Reader, 0, len(names))
	for _, f := range names {
		r, err := sstable.Open(f.path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, r)
	}
	return tables, nil
}

// nextSeqLocked computes max(existing seq)+1 across the current table
// list. Callers must hold tablesMu (read or write). Per the design
// decision in DESIGN.md, this rule is authoritative for both flush and
// compaction so the two paths can never collide on a sequence number.
func (cf *ColumnFamily) nextSeqLocked() uint64 {
	var max uint64
	for _, r := range cf.tables {
		if seq, ok := sstable.ParseSeq(filepath.Base(r.Path())); ok && seq > max {
			max = seq
		}
	}
	return max + 1
}

// Put assigns ts = now_ms() and appends Entry((row,column,ts), Put(value)).
func (cf *ColumnFamily) Put(row, column, value []byte) error {
	return cf.appendAndMaybeFlush(cell.Entry{
		Key:   cell.Key{Row: row, Column: column, Timestamp: nowMs()},
		Value: cell.NewPut(value),
	})
}

// PutRow assigns a single ts for the batch and appends one entry per
// column under that timestamp.
func (cf *ColumnFamily) PutRow(row []byte, columns map[string][]byte) error {
	ts := nowMs()
	for column, value := range columns {
		e := cell.Entry{Key: cell.Key{Row: row, Column: []byte(column), Timestamp: ts}, Value: cell.NewPut(value)}
		if err := cf.mem.Append(e); err != nil {
			return err
		}
	}
	cf.maybeFlush()
	return nil
}

// Delete is delete_with_ttl(row, column, nil): a permanent tombstone.
func (cf *ColumnFamily) Delete(row, column []byte) error {
	return cf.DeleteWithTTL(row, column, nil)
}

// DeleteWithTTL assigns ts = now_ms() and appends a Tombstone(ttlMs).
// A nil ttlMs is a permanent tombstone.
func (cf *ColumnFamily) DeleteWithTTL(row, column []byte, ttlMs *uint64) error {
	return cf.appendAndMaybeFlush(cell.Entry{
		Key:   cell.Key{Row: row, Column: column, Timestamp: nowMs()},
		Value: cell.NewTombstone(ttlMs),
	})
}

func (cf *ColumnFamily) appendAndMaybeFlush(e cell.Entry) error {
	if err := cf.mem.Append(e); err != nil {
		return err
	}
	cf.maybeFlush()
	return nil
}

// maybeFlush triggers a flush when the MemStore has grown past the
// configured threshold. Flush errors here are logged and swallowed,
// matching the teacher's flush-triggered-from-write pattern; the write
// that crossed the threshold has already succeeded.
func (cf *ColumnFamily) maybeFlush() {
	overCount := cf.mem.Len() > cf.opts.FlushThreshold
	overBytes := cf.opts.MaxMemStoreBytes > 0 && cf.mem.SizeBytes() > cf.opts.MaxMemStoreBytes
	if !overCount && !overBytes {
		return
	}
	if err := cf.Flush(); err != nil {
		log.Printf("columnfamily %s: flush: %v", cf.name, err)
	}
}

// Flush is a no-op if the MemStore is empty. Otherwise it writes the
// current MemStore contents to a new SSTable at max(existing seq)+1,
// truncates the WAL, and publishes the new table. A failure writing the
// SSTable leaves the MemStore and WAL untouched, so a retried Flush
// observes identical state.
//
// The sequence number is reserved and the new reader published into
// cf.tables in the same tablesMu critical section as the file write, so
// a concurrent Compact (or another Flush racing in from a different
// goroutine) can never observe the same max(existing seq) and pick the
// same name: one of the two always sees the other's published table
// first and reserves the next number instead.
func (cf *ColumnFamily) Flush() error {
	err := cf.mem.Flush(func(entries []cell.Entry) error {
		cf.tablesMu.Lock()
		defer cf.tablesMu.Unlock()

		seq := cf.nextSeqLocked()
		path := filepath.Join(cf.dir, sstable.FileName(seq))
		if err := sstable.Create(path, entries); err != nil {
			return err
		}
		reader, err := sstable.Open(path)
		if err != nil {
			return err
		}
		cf.tables = append(cf.tables, reader)
		return nil
	})
	if err != nil {
		return fmt.Errorf("columnfamily %s: flush: %w", cf.name, err)
	}
	return nil
}

// Compact runs a compaction with this column family's configured
// background compaction options (a minor compaction under the defaults).
func (cf *ColumnFamily) Compact() error {
	return cf.CompactWithOptions(cf.opts.BackgroundCompaction)
}

// CompactWithOptions selects input SSTables per opts.Type, merges and
// prunes them, writes the result at max(existing seq)+1, deletes the
// input files, and swaps the in-memory table list. Selection and
// merging run against a snapshot taken without holding tablesMu, since
// they only read existing, already-published tables; but the sequence
// number is reserved and the new reader published in the same
// continuously-held tablesMu critical section as the file write, so a
// concurrent Flush (or another Compact) can never reserve the same
// number: whichever runs second always observes the other's published
// table first.
func (cf *ColumnFamily) CompactWithOptions(opts compaction.Options) error {
	cf.tablesMu.RLock()
	snapshot := append([]*sstable.Reader(nil), cf.tables...)
	cf.tablesMu.RUnlock()

	paths := make([]string, len(snapshot))
	for i, r := range snapshot {
		paths[i] = r.Path()
	}
	idx := compaction.SelectInputs(paths, opts.Type)
	if len(idx) == 0 {
		return nil
	}

	var entries []cell.Entry
	inputPaths := make([]string, len(idx))
	for i, id := range idx {
		entries = append(entries, snapshot[id].ScanAll()...)
		inputPaths[i] = snapshot[id].Path()
	}

	merged := compaction.Merge(entries, opts, nowMs())

	cf.tablesMu.Lock()
	defer cf.tablesMu.Unlock()

	seq := cf.nextSeqLocked()
	newPath := filepath.Join(cf.dir, sstable.FileName(seq))
	if err := sstable.Create(newPath, merged); err != nil {
		return fmt.Errorf("columnfamily %s: compact: %w", cf.name, err)
	}
	newReader, err := sstable.Open(newPath)
	if err != nil {
		return fmt.Errorf("columnfamily %s: compact: reopen: %w", cf.name, err)
	}

	for _, p := range inputPaths {
		if err := os.Remove(p); err != nil {
			log.Printf("columnfamily %s: compact: remove %s: %v", cf.name, p, err)
		}
	}

	if opts.Type == compaction.Major {
		cf.tables = []*sstable.Reader{newReader}
		return nil
	}

	inputSet := make(map[string]bool, len(inputPaths))
	for _, p := range inputPaths {
		inputSet[p] = true
	}
	remaining := make([]*sstable.Reader, 0, len(cf.tables))
	for _, r := range cf.tables {
		if !inputSet[r.Path()] {
			remaining = append(remaining, r)
		}
	}
	remaining = append(remaining, newReader)
	sort.Slice(remaining, func(i, j int) bool {
		si, _ := sstable.ParseSeq(filepath.Base(remaining[i].Path()))
		sj, _ := sstable.ParseSeq(filepath.Base(remaining[j].Path()))
		return si < sj
	})
	cf.tables = remaining
	return nil
}

// maintenanceLoop ticks at cf.opts.CompactionInterval, triggering a
// compaction with the background options each time. Errors are
// logged, recorded for CompactionStats, and swallowed: they must not
// terminate the task.
func (cf *ColumnFamily) maintenanceLoop() {
	defer cf.wg.Done()

	ticker := time.NewTicker(cf.opts.CompactionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cf.stopCh:
			return
		case <-ticker.C:
			if err := cf.Compact(); err != nil {
				cf.recordCompactionError(err)
				log.Printf("columnfamily %s: background compaction: %v", cf.name, err)
			}
		}
	}
}

func (cf *ColumnFamily) recordCompactionError(err error) {
	cf.statsMu.Lock()
	defer cf.statsMu.Unlock()
	cf.lastCompactionErr = err
	cf.compactionErrCount++
}

// CompactionStats reports the last background-compaction error (if any)
// and a cumulative failure count: a health signal for callers that want
// to surface swallowed background errors to observability.
type CompactionStats struct {
	LastError  error
	ErrorCount uint64
}

// CompactionStats returns the current background-compaction health
// signal.
func (cf *ColumnFamily) CompactionStats() CompactionStats {
	cf.statsMu.Lock()
	defer cf.statsMu.Unlock()
	return CompactionStats{LastError: cf.lastCompactionErr, ErrorCount: cf.compactionErrCount}
}

// Close stops the background maintenance task, flushes any remaining
// MemStore contents, and closes the WAL. After Close, the column family
// must not be used.
func (cf *ColumnFamily) Close() error {
	var finalErr error
	cf.closeOnce.Do(func() {
		close(cf.stopCh)
		cf.wg.Wait()

		if err := cf.Flush(); err != nil {
			finalErr = fmt.Errorf("columnfamily %s: close: %w", cf.name, err)
		}
		if err := cf.mem.Close(); err != nil && finalErr == nil {
			finalErr = fmt.Errorf("columnfamily %s: close: %w", cf.name, err)
		}
	})
	return finalErr
}

// Name returns the column family's name.
func (cf *ColumnFamily) Name() string { return cf.name }
