package persistence

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressiblePayload(n int) []byte {
	// Runs of repeated bytes compress well under both lz4 and zstd.
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i / 64)
	}
	return data
}

func TestBlockRoundTrip(t *testing.T) {
	data := compressiblePayload(64 * 1024)

	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			block, err := EncodeBlock(data, compression)
			require.NoError(t, err)

			got, err := DecodeBlock(block)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, got))

			if compression != CompressionNone {
				assert.Less(t, len(block), len(data))
			}
		})
	}
}

func TestBlockIncompressibleFallsBackToNone(t *testing.T) {
	// Pseudo-random bytes do not compress; the header must record "none".
	data := make([]byte, 4096)
	state := uint64(0x9E3779B97F4A7C15)
	for i := range data {
		state = state*6364136223846793005 + 1442695040888963407
		data[i] = byte(state >> 56)
	}

	block, err := EncodeBlock(data, CompressionZstd)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, Compression(block[6]))

	got, err := DecodeBlock(block)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
}

func TestBlockEmptyPayload(t *testing.T) {
	block, err := EncodeBlock(nil, CompressionLZ4)
	require.NoError(t, err)

	got, err := DecodeBlock(block)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeBlockBadMagic(t *testing.T) {
	block, err := EncodeBlock([]byte("x"), CompressionNone)
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(block[0:], 0xDEADBEEF)
	_, err = DecodeBlock(block)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeBlockVersionSkew(t *testing.T) {
	block, err := EncodeBlock([]byte("x"), CompressionNone)
	require.NoError(t, err)

	binary.LittleEndian.PutUint16(block[4:], FormatVersion+1)
	_, err = DecodeBlock(block)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeBlockDetectsCorruption(t *testing.T) {
	block, err := EncodeBlock(compressiblePayload(1024), CompressionZstd)
	require.NoError(t, err)

	block[len(block)-1] ^= 0xFF
	_, err = DecodeBlock(block)
	require.Error(t, err)
	assert.True(t, IsChecksumMismatch(err))
}

func TestDecodeBlockTruncated(t *testing.T) {
	block, err := EncodeBlock(compressiblePayload(1024), CompressionLZ4)
	require.NoError(t, err)

	_, err = DecodeBlock(block[:10])
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = DecodeBlock(block[:len(block)-1])
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, c)

	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	_, err = ParseCompression("snappy")
	assert.Error(t, err)
}
