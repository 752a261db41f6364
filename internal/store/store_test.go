package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSetGet(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Set("k1", []byte("v1")))

	got, err := s.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestStoreGetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoreSetReplaces(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Set("k", []byte("old")))
	require.NoError(t, s.Set("k", []byte("new")))

	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestStoreDelete(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Set("k", []byte("v")))
	require.NoError(t, s.Delete("k"))

	_, err := s.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting a missing key is fine.
	assert.NoError(t, s.Delete("k"))
}

func TestStoreDeletePrefix(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Set("transcript_ep1_en", []byte("a")))
	require.NoError(t, s.Set("transcript_ep1_ja", []byte("b")))
	require.NoError(t, s.Set("transcript_ep2_en", []byte("c")))

	require.NoError(t, s.DeletePrefix("transcript_ep1_"))

	_, err := s.Get("transcript_ep1_en")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = s.Get("transcript_ep1_ja")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	got, err := s.Get("transcript_ep2_en")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), got)
}
