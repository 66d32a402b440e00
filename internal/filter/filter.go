// Package filter implements the byte-level predicate contract consumed
// by a column family's filtered read operations.
package filter

import (
	"bytes"
	"regexp"
)

// Filter is a pure predicate over a byte value.
type Filter interface {
	Matches(value []byte) bool
}

// Equals matches values byte-wise equal to Want.
type Equals struct {
	Want []byte
}

// Matches implements Filter.
func (f Equals) Matches(value []byte) bool { return bytes.Equal(value, f.Want) }

// Contains matches values that contain Substr.
type Contains struct {
	Substr []byte
}

// Matches implements Filter.
func (f Contains) Matches(value []byte) bool { return bytes.Contains(value, f.Substr) }

// CompareOp names a byte-wise lexicographic comparison.
type CompareOp int

const (
	// Less matches value < Bound.
	Less CompareOp = iota
	// LessOrEqual matches value <= Bound.
	LessOrEqual
	// Greater matches value > Bound.
	Greater
	// GreaterOrEqual matches value >= Bound.
	GreaterOrEqual
)

// Compare matches values related to Bound by Op.
type Compare struct {
	Op    CompareOp
	Bound []byte
}

// Matches implements Filter.
func (f Compare) Matches(value []byte) bool {
	c := bytes.Compare(value, f.Bound)
	switch f.Op {
	case Less:
		return c < 0
	case LessOrEqual:
		return c <= 0
	case Greater:
		return c > 0
	case GreaterOrEqual:
		return c >= 0
	default:
		return false
	}
}

// Regexp matches values against a regular expression. An invalid
// pattern compiles to a filter that always returns false rather than
// an error, per the consumed interface's contract.
type Regexp struct {
	re *regexp.Regexp
}

// NewRegexp compiles pattern. An invalid pattern is not an error here:
// the returned filter simply never matches.
func NewRegexp(pattern string) Regexp {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regexp{re: nil}
	}
	return Regexp{re: re}
}

// Matches implements Filter.
func (f Regexp) Matches(value []byte) bool {
	if f.re == nil {
		return false
	}
	return f.re.Match(value)
}
