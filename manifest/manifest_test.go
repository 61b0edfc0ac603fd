package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hupe1980/rmigo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	return &Manifest{
		Namespace:       "ints_64",
		KeyType:         "uint64",
		BranchingFactor: 128,
		NumLeafModels:   128,
		NumKeys:         1_000_000,
		BuildTimeNs:     42_000_000,
		AvgError:        3.5,
		MaxError:        17,
		ParamsFile:      ParamsFileName,
		ParamsSize:      3088,
		ParamsChecksum:  0xCAFEBABE,
		Compression:     "zstd",
	}
}

func TestManifestRoundTrip(t *testing.T) {
	m := validManifest()

	data, err := Encode(m)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, got.Version)
	assert.Equal(t, "json", got.Codec)
	assert.Equal(t, m.Namespace, got.Namespace)
	assert.Equal(t, m.NumKeys, got.NumKeys)
	assert.Equal(t, m.MaxError, got.MaxError)
	assert.Equal(t, m.ParamsChecksum, got.ParamsChecksum)
}

func TestManifestVersionSkew(t *testing.T) {
	m := validManifest()
	data, err := Encode(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["version"] = CurrentVersion + 1
	data2, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Decode(data2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestManifestRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"version":1,"codec":"json"}`))
	assert.Error(t, err)
}

func TestManifestLoadSave(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	m := validManifest()
	require.NoError(t, Save(ctx, store, "ints_64", m))

	got, err := Load(ctx, store, "ints_64")
	require.NoError(t, err)
	assert.Equal(t, m.NumKeys, got.NumKeys)
	assert.Equal(t, m.ParamsFile, got.ParamsFile)

	_, err = Load(ctx, store, "missing")
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))
}
