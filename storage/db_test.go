package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)

	require.NoError(t, db1.Put([]byte("settings"), []byte("v1")))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("settings"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)
}

func TestLevelDBMissNormalisedToNotFound(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("absent"))
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMemDBMissNormalisedToNotFound(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("absent"))
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.True(t, errors.Is(err, ErrNotFound))

	// Deleting a missing key is not an error.
	require.NoError(t, db.Delete([]byte("absent")))
}

func TestMemDBCopiesOnReadAndWrite(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	original := []byte("payload")
	require.NoError(t, db.Put([]byte("k"), original))

	// Mutating the caller's slice after Put must not change the stored value.
	original[0] = 'X'
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)

	// Mutating a read result must not leak back into the store.
	got[0] = 'Y'
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), again)
}
