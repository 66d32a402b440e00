package cell_test

import (
	"bytes"
	"testing"

	"github.com/wcstore/wcstore/internal/cell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCompare(t *testing.T) {
	a := cell.Key{Row: []byte("r1"), Column: []byte("c1"), Timestamp: 1}
	b := cell.Key{Row: []byte("r1"), Column: []byte("c1"), Timestamp: 2}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.Equal(t, 0, a.Compare(a))

	r2 := cell.Key{Row: []byte("r2"), Column: []byte("c0"), Timestamp: 0}
	assert.True(t, a.Less(r2))
}

func TestEncodeDecodeKeyRoundTrip(t *testing.T) {
	k := cell.Key{Row: []byte("row-1"), Column: []byte("col-1"), Timestamp: 1234567890}
	buf := cell.EncodeKey(k)
	got, n, err := cell.DecodeKey(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, k.Row, got.Row)
	assert.Equal(t, k.Column, got.Column)
	assert.Equal(t, k.Timestamp, got.Timestamp)
}

func TestEncodeDecodeValueRoundTrip(t *testing.T) {
	put := cell.NewPut([]byte("hello"))
	buf := cell.EncodeValue(put)
	got, _, err := cell.DecodeValue(buf)
	require.NoError(t, err)
	assert.True(t, got.IsPut())
	assert.Equal(t, put.Bytes, got.Bytes)

	perm := cell.NewTombstone(nil)
	buf = cell.EncodeValue(perm)
	got, _, err = cell.DecodeValue(buf)
	require.NoError(t, err)
	assert.True(t, got.IsTombstone())
	assert.Nil(t, got.TTLMs)

	ttl := uint64(5000)
	withTTL := cell.NewTombstone(&ttl)
	buf = cell.EncodeValue(withTTL)
	got, _, err = cell.DecodeValue(buf)
	require.NoError(t, err)
	require.NotNil(t, got.TTLMs)
	assert.Equal(t, ttl, *got.TTLMs)
}

func TestEncodeDecodeEntryRoundTrip(t *testing.T) {
	e := cell.Entry{
		Key:   cell.Key{Row: []byte("r"), Column: []byte("c"), Timestamp: 42},
		Value: cell.NewPut([]byte("v")),
	}
	buf := cell.EncodeEntry(e)
	got, n, err := cell.DecodeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, e.Key, got.Key)
	assert.Equal(t, e.Value.Bytes, got.Value.Bytes)
}

func TestReadWriteEntry(t *testing.T) {
	var buf bytes.Buffer
	e := cell.Entry{
		Key:   cell.Key{Row: []byte("r1"), Column: []byte("c1"), Timestamp: 1},
		Value: cell.NewPut([]byte("v1")),
	}
	require.NoError(t, cell.WriteEntry(&buf, e))

	got, err := cell.ReadEntry(&buf)
	require.NoError(t, err)
	assert.Equal(t, e.Key, got.Key)
	assert.Equal(t, e.Value.Bytes, got.Value.Bytes)
}

func TestReadEntryTruncatedTrailingRecord(t *testing.T) {
	var buf bytes.Buffer
	e := cell.Entry{
		Key:   cell.Key{Row: []byte("r1"), Column: []byte("c1"), Timestamp: 1},
		Value: cell.NewPut([]byte("v1")),
	}
	require.NoError(t, cell.WriteEntry(&buf, e))

	full := buf.Bytes()
	torn := bytes.NewReader(full[:len(full)-2])

	_, err := cell.ReadEntry(torn)
	assert.Error(t, err)
}
