// Package manifest defines the model manifest: the small JSON document that
// describes a trained model and points at its parameter blob.
package manifest

import (
	"context"
	"fmt"
	"path"

	"github.com/hupe1980/rmigo/blobstore"
	"github.com/hupe1980/rmigo/codec"
)

const (
	// FileName is the manifest blob name inside a model directory.
	FileName = "manifest.json"
	// ParamsFileName is the default parameter blob name.
	ParamsFileName = "rmi.params"
	// CurrentVersion is the manifest schema version this build writes.
	CurrentVersion = 1
)

// Manifest describes a trained model at rest.
type Manifest struct {
	Version   int    `json:"version"`
	Codec     string `json:"codec"`
	Namespace string `json:"namespace"`
	KeyType   string `json:"key_type"`

	// Model shape.
	BranchingFactor int    `json:"branching_factor"`
	NumLeafModels   int    `json:"num_leaf_models"`
	NumKeys         uint64 `json:"num_keys"`

	// Training stats.
	BuildTimeNs uint64  `json:"build_time_ns"`
	AvgError    float64 `json:"avg_error"`
	MaxError    uint64  `json:"max_error"`

	// Parameter blob.
	ParamsFile     string `json:"params_file"`
	ParamsSize     int64  `json:"params_size"`
	ParamsChecksum uint32 `json:"params_checksum"`
	Compression    string `json:"compression"`
}

// Validate checks structural invariants after decode.
func (m *Manifest) Validate() error {
	if m.Version != CurrentVersion {
		return fmt.Errorf("manifest: unsupported version %d (expected %d)", m.Version, CurrentVersion)
	}
	if _, ok := codec.ByName(m.Codec); !ok {
		return fmt.Errorf("manifest: unknown codec %q", m.Codec)
	}
	if m.NumLeafModels <= 0 {
		return fmt.Errorf("manifest: invalid leaf model count %d", m.NumLeafModels)
	}
	if m.BranchingFactor <= 0 {
		return fmt.Errorf("manifest: invalid branching factor %d", m.BranchingFactor)
	}
	if m.ParamsFile == "" {
		return fmt.Errorf("manifest: missing params file")
	}
	return nil
}

// Encode serializes the manifest with the default codec, stamping the
// version and codec name.
func Encode(m *Manifest) ([]byte, error) {
	m.Version = CurrentVersion
	m.Codec = codec.Default.Name()
	return codec.Default.Marshal(m)
}

// Decode parses and validates a manifest.
func Decode(data []byte) (*Manifest, error) {
	// Version and codec name are validated after a plain JSON parse; every
	// supported codec is JSON-shaped at the manifest level.
	var m Manifest
	if err := (codec.JSON{}).Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// BlobName returns the store name of a model file within a namespace.
// An empty namespace addresses files at the store root.
func BlobName(namespace, file string) string {
	return path.Join(namespace, file)
}

// Load reads and validates the manifest for a namespace from a blob store.
func Load(ctx context.Context, store blobstore.BlobStore, namespace string) (*Manifest, error) {
	blob, err := store.Open(ctx, BlobName(namespace, FileName))
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := blobstore.ReadFull(ctx, blob)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save writes the manifest for a namespace. The blob store's Put is atomic,
// so readers observe either the previous manifest or the new one.
func Save(ctx context.Context, store blobstore.BlobStore, namespace string, m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	return store.Put(ctx, BlobName(namespace, FileName), data)
}
