package rmi

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/rmigo/blobstore"
	"github.com/hupe1980/rmigo/internal/hash"
	"github.com/hupe1980/rmigo/manifest"
	"github.com/hupe1980/rmigo/persistence"
	"github.com/hupe1980/rmigo/resource"
)

// SaveOptions configures Save.
type SaveOptions struct {
	// Compression selects how the parameter payload is stored.
	Compression persistence.Compression
	// KeyType is recorded in the manifest for diagnostics.
	KeyType string
	// Controller throttles the parameter upload through its IO limit.
	// Nil means unthrottled.
	Controller *resource.Controller
}

// Save persists a trained model to a blob store under a namespace. The
// parameter blob is written before the manifest, so a reader never observes
// a manifest pointing at missing parameters.
func Save(ctx context.Context, store blobstore.BlobStore, namespace string, m *Model, optFns ...func(o *SaveOptions)) error {
	opts := SaveOptions{
		Compression: persistence.CompressionZstd,
		KeyType:     "uint64",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	params := EncodeParams(m)
	block, err := persistence.EncodeBlock(params, opts.Compression)
	if err != nil {
		return fmt.Errorf("rmi: encode params: %w", err)
	}

	if err := writeParams(ctx, store, manifest.BlobName(namespace, manifest.ParamsFileName), block, opts.Controller); err != nil {
		return fmt.Errorf("rmi: write params: %w", err)
	}

	mf := &manifest.Manifest{
		Namespace:       namespace,
		KeyType:         opts.KeyType,
		BranchingFactor: m.branchingFactor,
		NumLeafModels:   len(m.leaves),
		NumKeys:         m.numKeys,
		BuildTimeNs:     m.buildTimeNs,
		AvgError:        m.avgError,
		MaxError:        m.maxError,
		ParamsFile:      manifest.ParamsFileName,
		ParamsSize:      int64(len(block)),
		ParamsChecksum:  hash.CRC32C(block),
		Compression:     opts.Compression.String(),
	}
	if err := manifest.Save(ctx, store, namespace, mf); err != nil {
		return fmt.Errorf("rmi: write manifest: %w", err)
	}
	return nil
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Controller throttles the parameter read through its IO limit.
	// Nil means unthrottled.
	Controller *resource.Controller
}

// Load reads a model from a blob store. The stored checksum covers the
// framed parameter blob, so corruption is caught before decoding.
func Load(ctx context.Context, store blobstore.BlobStore, namespace string, optFns ...func(o *LoadOptions)) (*Model, error) {
	opts := LoadOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	mf, err := manifest.Load(ctx, store, namespace)
	if err != nil {
		return nil, err
	}

	blob, err := store.Open(ctx, manifest.BlobName(namespace, mf.ParamsFile))
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	block, err := readParams(ctx, blob, opts.Controller)
	if err != nil {
		return nil, err
	}

	if int64(len(block)) != mf.ParamsSize {
		return nil, fmt.Errorf("rmi: params size mismatch: manifest says %d, blob has %d", mf.ParamsSize, len(block))
	}
	if sum := hash.CRC32C(block); sum != mf.ParamsChecksum {
		return nil, &persistence.ChecksumMismatchError{Expected: mf.ParamsChecksum, Actual: sum}
	}

	params, err := persistence.DecodeBlock(block)
	if err != nil {
		return nil, err
	}

	m, err := DecodeParams(params)
	if err != nil {
		return nil, err
	}

	if m.numKeys != mf.NumKeys || len(m.leaves) != mf.NumLeafModels {
		return nil, fmt.Errorf("rmi: manifest and params disagree on model shape")
	}

	m.buildTimeNs = mf.BuildTimeNs
	m.avgError = mf.AvgError
	return m, nil
}

// writeParams stores the framed parameter blob, throttled by the
// controller's IO limit when one is set.
func writeParams(ctx context.Context, store blobstore.BlobStore, name string, block []byte, rc *resource.Controller) error {
	if rc == nil {
		return store.Put(ctx, name, block)
	}

	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := resource.NewRateLimitedWriter(ctx, w, rc).Write(block); err != nil {
		blobstore.Abort(w)
		return err
	}
	return w.Close()
}

// readParams reads the whole parameter blob, throttled by the controller's
// IO limit when one is set. Without a controller the blob's zero-copy read
// path is used directly.
func readParams(ctx context.Context, blob blobstore.Blob, rc *resource.Controller) ([]byte, error) {
	if rc == nil {
		return blobstore.ReadFull(ctx, blob)
	}

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(resource.NewRateLimitedReader(ctx, r, rc))
}
