// Package table implements a directory holding a set of named column
// families.
package table

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/wcstore/wcstore/internal/columnfamily"
)

// ErrAlreadyExists is returned by CreateCF when the named column family
// already exists.
var ErrAlreadyExists = errors.New("table: column family already exists")

// Table is a directory containing one subdirectory per column family.
type Table struct {
	dir  string
	opts columnfamily.Options

	mu  sync.RWMutex
	cfs map[string]*columnfamily.ColumnFamily
}

// Open creates dir if absent and opens a column family for every
// subdirectory already present.
func Open(dir string, opts columnfamily.Options) (*Table, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("table: open %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", dir, err)
	}

	t := &Table{dir: dir, opts: opts, cfs: make(map[string]*columnfamily.ColumnFamily)}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		cf, err := columnfamily.Open(dir, e.Name(), opts)
		if err != nil {
			_ = t.Close()
			return nil, fmt.Errorf("table: open cf %s: %w", e.Name(), err)
		}
		t.cfs[e.Name()] = cf
	}
	return t, nil
}

// CreateCF opens a new column family named name, failing with
// ErrAlreadyExists if one is already open under that name.
func (t *Table) CreateCF(name string) (*columnfamily.ColumnFamily, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.cfs[name]; exists {
		return nil, fmt.Errorf("table: create cf %s: %w", name, ErrAlreadyExists)
	}

	cf, err := columnfamily.Open(t.dir, name, t.opts)
	if err != nil {
		return nil, fmt.Errorf("table: create cf %s: %w", name, err)
	}
	t.cfs[name] = cf
	return cf, nil
}

// CF returns the named column family, or false if none is open under
// that name.
func (t *Table) CF(name string) (*columnfamily.ColumnFamily, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cf, ok := t.cfs[name]
	return cf, ok
}

// Names returns the names of every open column family, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.cfs))
	for name := range t.cfs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close closes every open column family. It returns the first error
// encountered, after attempting to close the rest.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for _, cf := range t.cfs {
		if err := cf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
