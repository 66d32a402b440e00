package columnfamily

import (
	"time"

	"github.com/wcstore/wcstore/internal/compaction"
)

// Options tunes a single column family: when writes trigger an automatic
// flush, how often the background maintenance task runs, and what
// compaction options that background task applies.
type Options struct {
	// FlushThreshold is the MemStore entry count above which a write
	// triggers an automatic flush.
	FlushThreshold int
	// MaxMemStoreBytes, if non-zero, is a byte-size flush trigger
	// alongside FlushThreshold: a write also triggers a flush once
	// MemStore.SizeBytes() exceeds it.
	MaxMemStoreBytes int
	// CompactionInterval is the period of the background maintenance
	// task's minor-compaction tick.
	CompactionInterval time.Duration
	// BackgroundCompaction is applied by the periodic maintenance task.
	BackgroundCompaction compaction.Options
}

// DefaultOptions returns the column family defaults: a 10,000-entry
// flush threshold and a 60-second background minor-compaction interval.
func DefaultOptions() Options {
	return Options{
		FlushThreshold:       10000,
		CompactionInterval:   60 * time.Second,
		BackgroundCompaction: compaction.DefaultOptions(),
	}
}

// FillDefaults replaces a non-positive FlushThreshold or
// CompactionInterval with its default. MaxMemStoreBytes and
// BackgroundCompaction are left as given.
func (o *Options) FillDefaults() {
	d := DefaultOptions()
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = d.FlushThreshold
	}
	if o.CompactionInterval <= 0 {
		o.CompactionInterval = d.CompactionInterval
	}
}
