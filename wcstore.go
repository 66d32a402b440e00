// Package wcstore is a wide-column, versioned key-value store modeled
// after the HBase/BigTable data model. A table is organized as a set of
// named column families, each an independent log-structured merge-tree
// storing versioned cells. It supports multi-version reads, tombstones
// with optional TTL, flush to immutable sorted files, and background
// compaction with configurable version and age retention.
//
// Example usage:
//
//	db, err := wcstore.Open("/path/to/table", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	cf, err := db.CreateCF("events")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := cf.Put([]byte("row1"), []byte("col1"), []byte("value")); err != nil {
//		log.Printf("put failed: %v", err)
//	}
//
//	value, ok := cf.Get([]byte("row1"), []byte("col1"))
//	if ok {
//		fmt.Printf("value: %s\n", value)
//	}
package wcstore

import (
	"github.com/wcstore/wcstore/internal/columnfamily"
	"github.com/wcstore/wcstore/internal/table"
)

// Options is an alias for columnfamily.Options, re-exported so callers
// can tune column families without importing the internal package.
type Options = columnfamily.Options

// DefaultOptions returns the column family defaults. Re-exported for
// user convenience.
var DefaultOptions = columnfamily.DefaultOptions

// ColumnFamily is an alias for columnfamily.ColumnFamily, the per-family
// LSM engine returned by CreateCF and CF.
type ColumnFamily = columnfamily.ColumnFamily

// ErrAlreadyExists is returned by CreateCF when the named column family
// already exists.
var ErrAlreadyExists = table.ErrAlreadyExists

// DB is a table: a directory holding a set of named column families.
type DB struct {
	table *table.Table
}

// Open opens or creates a table at the given directory path, opening a
// column family for every subdirectory already present. A nil opts uses
// DefaultOptions() for every column family opened or created through
// this DB.
func Open(path string, opts *Options) (*DB, error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	t, err := table.Open(path, o)
	if err != nil {
		return nil, err
	}
	return &DB{table: t}, nil
}

// CreateCF creates and opens a new column family named name, failing
// with ErrAlreadyExists if one is already open under that name.
func (db *DB) CreateCF(name string) (*ColumnFamily, error) {
	return db.table.CreateCF(name)
}

// CF returns the named column family, or false if none is open under
// that name.
func (db *DB) CF(name string) (*ColumnFamily, bool) {
	return db.table.CF(name)
}

// Names returns the names of every open column family, sorted.
func (db *DB) Names() []string {
	return db.table.Names()
}

// Close closes every open column family, flushing any remaining
// MemStore contents first. After Close, the DB should not be used.
func (db *DB) Close() error {
	return db.table.Close()
}
