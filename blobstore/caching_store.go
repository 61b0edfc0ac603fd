package blobstore

import (
	"context"
	"errors"
	"io"
)

// CachingStore wraps a remote BlobStore with a local mirror. The first Open
// of a blob downloads it into the local store; later opens are served from
// disk via mmap. Model blobs are immutable once published, so entries never
// go stale except through Put or Delete, which invalidate the mirror.
type CachingStore struct {
	remote BlobStore
	local  *LocalStore
}

// NewCachingStore creates a caching store mirroring remote blobs into the
// local directory cacheDir.
func NewCachingStore(remote BlobStore, cacheDir string) *CachingStore {
	return &CachingStore{
		remote: remote,
		local:  NewLocalStore(cacheDir),
	}
}

// Open opens a blob, downloading it into the cache on first access.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if blob, err := s.local.Open(ctx, name); err == nil {
		return blob, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := s.fill(ctx, name); err != nil {
		return nil, err
	}
	return s.local.Open(ctx, name)
}

func (s *CachingStore) fill(ctx context.Context, name string) error {
	src, err := s.remote.Open(ctx, name)
	if err != nil {
		return err
	}
	defer src.Close()

	rc, err := src.ReadRange(ctx, 0, src.Size())
	if err != nil {
		return err
	}
	defer rc.Close()

	dst, err := s.local.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, rc); err != nil {
		Abort(dst)
		return err
	}
	// The staged write only becomes visible if Close commits it.
	return dst.Close()
}

// Put writes through to the remote store and drops any cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.local.Delete(ctx, name); err != nil {
		return err
	}
	return s.remote.Put(ctx, name, data)
}

// Create streams to the remote store; the cache fills on next Open.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := s.local.Delete(ctx, name); err != nil {
		return nil, err
	}
	return s.remote.Create(ctx, name)
}

// Delete removes the blob remotely and locally.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	if err := s.local.Delete(ctx, name); err != nil {
		return err
	}
	return s.remote.Delete(ctx, name)
}

// List delegates to the remote store, the source of truth.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.remote.List(ctx, prefix)
}
