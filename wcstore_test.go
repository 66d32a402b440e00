package wcstore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcstore/wcstore"
)

func TestOpenCreateCFPutGet(t *testing.T) {
	db, err := wcstore.Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer db.Close()

	cf, err := db.CreateCF("t")
	require.NoError(t, err)

	require.NoError(t, cf.Put([]byte("r1"), []byte("c1"), []byte("v1")))
	v, ok := cf.Get([]byte("r1"), []byte("c1"))
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))

	_, ok = cf.Get([]byte("r2"), []byte("c1"))
	assert.False(t, ok)
}

func TestCreateCFAlreadyExists(t *testing.T) {
	db, err := wcstore.Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateCF("t")
	require.NoError(t, err)

	_, err = db.CreateCF("t")
	require.True(t, errors.Is(err, wcstore.ErrAlreadyExists))
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()

	db, err := wcstore.Open(dir, nil)
	require.NoError(t, err)
	cf, err := db.CreateCF("t")
	require.NoError(t, err)
	require.NoError(t, cf.Put([]byte("r1"), []byte("c1"), []byte("v1")))
	require.NoError(t, db.Close())

	db2, err := wcstore.Open(dir, nil)
	require.NoError(t, err)
	defer db2.Close()

	cf2, ok := db2.CF("t")
	require.True(t, ok)
	v, ok := cf2.Get([]byte("r1"), []byte("c1"))
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))
}

func TestCustomOptions(t *testing.T) {
	opts := wcstore.DefaultOptions()
	opts.FlushThreshold = 2

	db, err := wcstore.Open(t.TempDir(), &opts)
	require.NoError(t, err)
	defer db.Close()

	cf, err := db.CreateCF("t")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, cf.Put([]byte("r"), []byte("c"), []byte("v")))
	}

	v, ok := cf.Get([]byte("r"), []byte("c"))
	require.True(t, ok)
	assert.Equal(t, "v", string(v))
}
