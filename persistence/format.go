package persistence

import "errors"

const (
	// MagicNumber identifies parameter blobs (ASCII: "RMIP").
	MagicNumber = 0x524D4950
	// FormatVersion is the current container format version.
	FormatVersion = 1

	// headerSize is the fixed frame header:
	// magic u32 | version u16 | compression u8 | reserved u8 |
	// uncompressedSize u64 | payloadSize u64 | crc32c u32
	headerSize = 4 + 2 + 1 + 1 + 8 + 8 + 4
)

var (
	ErrBadMagic           = errors.New("persistence: bad magic number")
	ErrUnsupportedVersion = errors.New("persistence: unsupported format version")
	ErrTruncated          = errors.New("persistence: truncated block")
)

// Compression selects the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the payload verbatim.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast decode for load paths).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd (better ratio for cold storage).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression maps a config string to a Compression value.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, errors.New("persistence: unknown compression: " + s)
	}
}
