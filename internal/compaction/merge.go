package compaction

import (
	"sort"

	"github.com/wcstore/wcstore/internal/cell"
)

// Merge concatenates entries from the selected input SSTables, sorts by
// full key ascending, and — if any pruning rule is active — applies
// per-cell version/age/tombstone pruning before returning the final
// sorted, pruned list ready to write as a new SSTable.
//
// entries need not be pre-sorted; Merge sorts the concatenation itself
// (a stable merge across already-sorted per-file inputs is not assumed).
func Merge(entries []cell.Entry, opts Options, nowMs uint64) []cell.Entry {
	merged := make([]cell.Entry, len(entries))
	copy(merged, entries)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Key.Less(merged[j].Key)
	})

	pruningActive := opts.MaxVersions != nil || opts.MaxAgeMs != nil || opts.CleanupTombstones
	if !pruningActive {
		return merged
	}

	// Group by (row, column), preserving first-seen group order.
	type group struct {
		key     cell.Key // row+column identity; timestamp ignored
		entries []cell.Entry
	}
	var groups []*group
	index := make(map[string]*group)
	for _, e := range merged {
		gk := string(e.Key.Row) + "\x00" + string(e.Key.Column)
		g, ok := index[gk]
		if !ok {
			g = &group{key: e.Key}
			index[gk] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, e)
	}

	var out []cell.Entry
	for _, g := range groups {
		out = append(out, pruneGroup(g.entries, opts, nowMs)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Key.Less(out[j].Key)
	})
	return out
}

// pruneGroup applies the per-cell retention rule to every version of a
// single (row, column), walking from newest to oldest.
func pruneGroup(entries []cell.Entry, opts Options, nowMs uint64) []cell.Entry {
	sorted := make([]cell.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key.Timestamp > sorted[j].Key.Timestamp
	})

	var kept []cell.Entry
	seenLive := false
	liveCount := 0

	for _, e := range sorted {
		if e.Value.IsPut() {
			if opts.MaxVersions != nil && liveCount >= *opts.MaxVersions {
				continue
			}
			if opts.MaxAgeMs != nil && nowMs-e.Key.Timestamp > *opts.MaxAgeMs {
				continue
			}
			kept = append(kept, e)
			liveCount++
			seenLive = true
			continue
		}

		// Tombstone.
		if !opts.CleanupTombstones {
			kept = append(kept, e)
			continue
		}
		if e.Value.TTLMs != nil {
			if e.Key.Timestamp+*e.Value.TTLMs > nowMs {
				kept = append(kept, e)
			}
			continue
		}
		// Permanent tombstone: keep only while it still shadows older
		// data that has not already been excluded.
		if !seenLive {
			kept = append(kept, e)
		}
	}

	return kept
}
