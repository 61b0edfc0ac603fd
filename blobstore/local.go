package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/rmigo/internal/fs"
	"github.com/hupe1980/rmigo/internal/mmap"
)

// LocalStoreOptions configures a LocalStore.
type LocalStoreOptions struct {
	// FS is the file system implementation to use.
	// Overriding it (e.g. with fs.FaultyFS) disables mmap reads.
	FS fs.FileSystem
}

// LocalStore implements BlobStore using the local file system.
//
// Reads are mmap-backed for zero-copy access to large parameter blobs.
// Writes are atomic: data goes to a temp file which is fsynced and renamed
// into place, followed by a directory sync.
type LocalStore struct {
	root string
	fsys fs.FileSystem
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, optFns ...func(o *LocalStoreOptions)) *LocalStore {
	opts := LocalStoreOptions{FS: fs.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LocalStore{root: root, fsys: opts.FS}
}

// Root returns the root directory of the store.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	p := s.path(name)

	// mmap only works on real files; a custom FileSystem (fault injection)
	// falls back to buffered reads.
	if _, ok := s.fsys.(fs.LocalFS); ok {
		m, err := mmap.Open(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return &localBlob{m: m}, nil
	}

	f, err := s.fsys.OpenFile(p, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &memBlob{data: data}, nil
}

// Put writes a blob atomically (temp file, fsync, rename, directory sync).
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.(*localWritableBlob).Abort()
		return err
	}
	return w.Close()
}

// Create creates a new blob for streaming writes.
// The blob is staged in a temp file and renamed into place on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	p := s.path(name)
	if err := s.fsys.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	tmp := p + ".tmp"
	f, err := s.fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{fsys: s.fsys, f: f, tmp: tmp, final: p}, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	err := s.fsys.Remove(s.path(name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns all blob names under the root with the given prefix, sorted.
// Names use forward slashes regardless of platform.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := s.fsys.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			childRel := e.Name()
			if rel != "" {
				childRel = rel + "/" + e.Name()
			}
			if e.IsDir() {
				if err := walk(filepath.Join(dir, e.Name()), childRel); err != nil {
					return err
				}
				continue
			}
			if strings.HasSuffix(e.Name(), ".tmp") {
				continue
			}
			if strings.HasPrefix(childRel, prefix) {
				names = append(names, childRel)
			}
		}
		return nil
	}

	if err := walk(s.root, ""); err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// syncDir persists a completed rename in dir.
func syncDir(fsys fs.FileSystem, dir string) error {
	f, err := fsys.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// localBlob is an mmap-backed read-only blob.
type localBlob struct {
	m *mmap.File
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	data := b.m.Data
	if off < 0 || off > int64(len(data)) {
		return nil, io.EOF
	}
	end := off + length
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return io.NopCloser(bytes.NewReader(data[off:end])), nil
}

func (b *localBlob) Close() error { return b.m.Close() }

func (b *localBlob) Size() int64 { return int64(len(b.m.Data)) }

func (b *localBlob) Bytes() ([]byte, error) { return b.m.Data, nil }

// localWritableBlob stages writes in a temp file and commits on Close.
type localWritableBlob struct {
	fsys   fs.FileSystem
	f      fs.File
	tmp    string
	final  string
	closed bool
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("blobstore: write on closed blob")
	}
	return b.f.Write(p)
}

func (b *localWritableBlob) Sync() error {
	if b.closed {
		return nil
	}
	return b.f.Sync()
}

func (b *localWritableBlob) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.f.Sync(); err != nil {
		b.f.Close()
		b.fsys.Remove(b.tmp)
		return err
	}
	if err := b.f.Close(); err != nil {
		b.fsys.Remove(b.tmp)
		return err
	}
	if err := b.fsys.Rename(b.tmp, b.final); err != nil {
		b.fsys.Remove(b.tmp)
		return err
	}

	// Persist the rename.
	return syncDir(b.fsys, filepath.Dir(b.final))
}

// Abort drops the staged temp file without committing the blob.
func (b *localWritableBlob) Abort() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.f.Close()
	return b.fsys.Remove(b.tmp)
}
