package walog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wcstore/wcstore/internal/cell"
	"github.com/wcstore/wcstore/internal/walog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(row, col string, ts uint64, val string) cell.Entry {
	return cell.Entry{
		Key:   cell.Key{Row: []byte(row), Column: []byte(col), Timestamp: ts},
		Value: cell.NewPut([]byte(val)),
	}
}

func TestWALAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := walog.Open(path)
	require.NoError(t, err)

	require.NoError(t, w.Append(entry("r1", "c1", 1, "v1")))
	require.NoError(t, w.Append(entry("r1", "c1", 2, "v2")))
	require.NoError(t, w.Append(entry("r2", "c1", 3, "v3")))

	entries, err := w.Replay()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "v1", string(entries[0].Value.Bytes))
	assert.Equal(t, "v3", string(entries[2].Value.Bytes))

	require.NoError(t, w.Close())
}

func TestWALReplayAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := walog.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(entry("a", "c", 1, "1")))
	require.NoError(t, w.Append(entry("b", "c", 2, "2")))
	require.NoError(t, w.Close())

	w2, err := walog.Open(path)
	require.NoError(t, err)
	defer w2.Close()

	entries, err := w2.Replay()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestWALTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := walog.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(entry("a", "c", 1, "1")))
	require.NoError(t, w.Truncate())

	entries, err := w.Replay()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, w.Close())
}

func TestWALReplayTruncatedTrailingRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := walog.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(entry("a", "c", 1, "1")))
	require.NoError(t, w.Append(entry("b", "c", 2, "2")))
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-2))

	w2, err := walog.Open(path)
	require.NoError(t, err)
	defer w2.Close()

	entries, err := w2.Replay()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", string(entries[0].Value.Bytes))
}

func TestWALAppendAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")

	w, err := walog.Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	err = w.Append(entry("a", "c", 1, "1"))
	assert.ErrorIs(t, err, walog.ErrClosed)
}
