// Package compaction implements the policy-driven merge of SSTables:
// version and age pruning, and tombstone garbage collection.
package compaction

// Type selects which SSTables a compaction considers.
type Type int

const (
	// Minor compacts a prefix of the oldest SSTables.
	Minor Type = iota
	// Major compacts every current SSTable.
	Major
)

// Options configures a single compaction run. All fields are optional;
// the zero value disables the corresponding pruning rule, except
// CleanupTombstones which defaults to true via DefaultOptions.
type Options struct {
	Type              Type
	MaxVersions       *int
	MaxAgeMs          *uint64
	CleanupTombstones bool
}

// DefaultOptions returns the default minor-compaction policy used by the
// background maintenance task: no version or age pruning, tombstone GC
// enabled.
func DefaultOptions() Options {
	return Options{
		Type:              Minor,
		CleanupTombstones: true,
	}
}
