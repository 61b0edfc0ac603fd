package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/rmigo/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	data := []byte("model parameters")
	require.NoError(t, store.Put(ctx, "ints_64/rmi.params", data))

	blob, err := store.Open(ctx, "ints_64/rmi.params")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(len(data)), blob.Size())

	got, err := ReadFull(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.Open(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorePutIsAtomic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir)

	require.NoError(t, store.Put(ctx, "m/manifest.json", []byte("v1")))
	require.NoError(t, store.Put(ctx, "m/manifest.json", []byte("v2")))

	// No temp files may survive a successful Put.
	entries, err := os.ReadDir(filepath.Join(dir, "m"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "manifest.json", entries[0].Name())

	blob, err := store.Open(ctx, "m/manifest.json")
	require.NoError(t, err)
	defer blob.Close()

	got, err := ReadFull(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestLocalStoreCreateCommitsOnClose(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	w, err := store.Create(ctx, "staged.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("half"))
	require.NoError(t, err)

	// Not yet visible.
	_, err = store.Open(ctx, "staged.bin")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "staged.bin")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(4), blob.Size())
}

func TestLocalStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	require.NoError(t, store.Put(ctx, "a/manifest.json", []byte("x")))
	require.NoError(t, store.Put(ctx, "a/rmi.params", []byte("y")))
	require.NoError(t, store.Put(ctx, "b/manifest.json", []byte("z")))

	names, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/manifest.json", "a/rmi.params"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStoreDeleteMissingIsNoop(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), "ghost"))
}

func TestLocalStoreFaultySyncFailsPut(t *testing.T) {
	ctx := context.Background()

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("rmi.params", fs.Fault{FailAfterBytes: -1, FailOnSync: true})

	store := NewLocalStore(t.TempDir(), func(o *LocalStoreOptions) {
		o.FS = faulty
	})

	err := store.Put(ctx, "ns/rmi.params", []byte("doomed"))
	require.Error(t, err)

	// The failed write must not become visible.
	_, err = store.Open(ctx, "ns/rmi.params")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "m/blob", []byte("abc")))

	blob, err := store.Open(ctx, "m/blob")
	require.NoError(t, err)

	got, err := ReadFull(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	rc, err := blob.ReadRange(ctx, 1, 2)
	require.NoError(t, err)
	defer rc.Close()

	buf := make([]byte, 2)
	_, err = rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("bc"), buf)

	require.NoError(t, store.Delete(ctx, "m/blob"))
	_, err = store.Open(ctx, "m/blob")
	assert.True(t, errors.Is(err, ErrNotFound))
}
