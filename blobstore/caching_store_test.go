package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore tracks how often blobs are opened on the remote side.
type countingStore struct {
	*MemoryStore
	opens int
}

func (c *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	c.opens++
	return c.MemoryStore.Open(ctx, name)
}

func TestCachingStoreServesSecondOpenLocally(t *testing.T) {
	ctx := context.Background()
	remote := &countingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, remote.Put(ctx, "m/rmi.params", []byte("params")))

	store := NewCachingStore(remote, t.TempDir())

	blob, err := store.Open(ctx, "m/rmi.params")
	require.NoError(t, err)
	got, err := ReadFull(ctx, blob)
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	assert.Equal(t, []byte("params"), got)
	assert.Equal(t, 1, remote.opens)

	// Second open must not hit the remote.
	blob, err = store.Open(ctx, "m/rmi.params")
	require.NoError(t, err)
	got, err = ReadFull(ctx, blob)
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	assert.Equal(t, []byte("params"), got)
	assert.Equal(t, 1, remote.opens)
}

func TestCachingStorePutInvalidates(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	store := NewCachingStore(remote, t.TempDir())

	require.NoError(t, store.Put(ctx, "m/manifest.json", []byte("v1")))

	blob, err := store.Open(ctx, "m/manifest.json")
	require.NoError(t, err)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Put(ctx, "m/manifest.json", []byte("v2")))

	blob, err = store.Open(ctx, "m/manifest.json")
	require.NoError(t, err)
	got, err := ReadFull(ctx, blob)
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	assert.Equal(t, []byte("v2"), got)
}

func TestCachingStoreMissingBlob(t *testing.T) {
	store := NewCachingStore(NewMemoryStore(), t.TempDir())

	_, err := store.Open(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCachingStoreDeleteRemovesBoth(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	store := NewCachingStore(remote, t.TempDir())

	require.NoError(t, store.Put(ctx, "m/blob", []byte("x")))

	blob, err := store.Open(ctx, "m/blob")
	require.NoError(t, err)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Delete(ctx, "m/blob"))

	_, err = store.Open(ctx, "m/blob")
	assert.True(t, errors.Is(err, ErrNotFound))
}
