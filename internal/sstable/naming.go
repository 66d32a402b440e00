package sstable

import (
	"fmt"
	"regexp"
	"strconv"
)

// nameRe matches the ten-digit, zero-padded SSTable filename the
// filesystem layout requires: ^[0-9]{10}\.sst$
var nameRe = regexp.MustCompile(`^([0-9]{10})\.sst$`)

// FileName formats the canonical filename for sequence number seq.
func FileName(seq uint64) string {
	return fmt.Sprintf("%010d.sst", seq)
}

// ParseSeq extracts the sequence number from a filename matching the
// required pattern. ok is false for any other filename, which callers
// must ignore rather than treat as a column family file.
func ParseSeq(name string) (seq uint64, ok bool) {
	m := nameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
