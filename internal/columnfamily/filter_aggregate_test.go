package columnfamily_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcstore/wcstore/internal/aggregate"
	"github.com/wcstore/wcstore/internal/columnfamily"
	"github.com/wcstore/wcstore/internal/filter"
)

func TestGetWithFilter(t *testing.T) {
	cf := open(t, columnfamily.DefaultOptions())
	require.NoError(t, cf.Put([]byte("r1"), []byte("c1"), []byte("hello")))

	fs := filter.Set{Columns: []filter.ColumnFilter{
		{Column: []byte("c1"), Filter: filter.Contains{Substr: []byte("ell")}},
	}}
	v, ok := cf.GetWithFilter([]byte("r1"), []byte("c1"), fs)
	require.True(t, ok)
	assert.Equal(t, "hello", string(v))

	fs2 := filter.Set{Columns: []filter.ColumnFilter{
		{Column: []byte("c1"), Filter: filter.Equals{Want: []byte("nope")}},
	}}
	_, ok = cf.GetWithFilter([]byte("r1"), []byte("c1"), fs2)
	assert.False(t, ok)
}

func TestScanWithFilter(t *testing.T) {
	cf := open(t, columnfamily.DefaultOptions())
	require.NoError(t, cf.Put([]byte("r1"), []byte("c1"), []byte("cat")))
	require.NoError(t, cf.Put([]byte("r2"), []byte("c1"), []byte("dog")))

	fs := filter.Set{Columns: []filter.ColumnFilter{
		{Column: []byte("c1"), Filter: filter.Equals{Want: []byte("cat")}},
	}}

	out := cf.ScanWithFilter([]byte("r1"), []byte("r2"), fs)
	require.Contains(t, out, "r1")
	assert.NotContains(t, out, "r2")
}

func TestAggregate(t *testing.T) {
	cf := open(t, columnfamily.DefaultOptions())
	require.NoError(t, cf.Put([]byte("r1"), []byte("c1"), []byte("1")))
	// Writes in the same millisecond collide on one version; keep them apart.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cf.Put([]byte("r1"), []byte("c1"), []byte("2")))

	r := cf.Aggregate([]byte("r1"), []byte("c1"), aggregate.CountKind)
	assert.Equal(t, uint64(2), r.Count)
}

func TestAggregateRange(t *testing.T) {
	cf := open(t, columnfamily.DefaultOptions())
	require.NoError(t, cf.Put([]byte("r1"), []byte("c1"), []byte("1")))

	ts := cf.GetVersions([]byte("r1"), []byte("c1"), 1)[0].Timestamp

	r := cf.AggregateRange([]byte("r1"), []byte("c1"), aggregate.SumKind, ts, ts)
	assert.Equal(t, int64(1), r.Sum)

	r = cf.AggregateRange([]byte("r1"), []byte("c1"), aggregate.CountKind, ts+1, ts+1000)
	assert.Equal(t, uint64(0), r.Count)
}
