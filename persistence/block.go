package persistence

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/hupe1980/rmigo/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// EncodeBlock frames data into a parameter blob: header plus (optionally
// compressed) payload. If compression gains less than 10%, the payload is
// stored uncompressed and the header records CompressionNone, so decoders
// never pay decompression cost for incompressible data.
func EncodeBlock(data []byte, compression Compression) ([]byte, error) {
	payload := data
	stored := CompressionNone

	switch compression {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		// n == 0 means incompressible
		if n > 0 && float64(n) <= float64(len(data))*0.9 {
			payload = buf[:n]
			stored = CompressionLZ4
		}
	case CompressionZstd:
		enc := getZstdEncoder()
		compressed := enc.EncodeAll(data, nil)
		putZstdEncoder(enc)

		if float64(len(compressed)) <= float64(len(data))*0.9 {
			payload = compressed
			stored = CompressionZstd
		}
	default:
		return nil, errors.New("persistence: unknown compression")
	}

	out := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:], MagicNumber)
	binary.LittleEndian.PutUint16(out[4:], FormatVersion)
	out[6] = byte(stored)
	out[7] = 0
	binary.LittleEndian.PutUint64(out[8:], uint64(len(data)))
	binary.LittleEndian.PutUint64(out[16:], uint64(len(payload)))
	binary.LittleEndian.PutUint32(out[24:], hash.CRC32C(payload))
	copy(out[headerSize:], payload)
	return out, nil
}

// DecodeBlock verifies and unwraps a parameter blob encoded by EncodeBlock.
func DecodeBlock(block []byte) ([]byte, error) {
	if len(block) < headerSize {
		return nil, ErrTruncated
	}

	if binary.LittleEndian.Uint32(block[0:]) != MagicNumber {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(block[4:]); v != FormatVersion {
		return nil, ErrUnsupportedVersion
	}

	compression := Compression(block[6])
	uncompressedSize := binary.LittleEndian.Uint64(block[8:])
	payloadSize := binary.LittleEndian.Uint64(block[16:])
	checksum := binary.LittleEndian.Uint32(block[24:])

	if uint64(len(block)-headerSize) < payloadSize {
		return nil, ErrTruncated
	}
	payload := block[headerSize : headerSize+int(payloadSize)]

	if err := verifyChecksum(payload, checksum); err != nil {
		return nil, err
	}

	switch compression {
	case CompressionNone:
		if uint64(len(payload)) != uncompressedSize {
			return nil, ErrTruncated
		}
		return payload, nil

	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		if uint64(n) != uncompressedSize {
			return nil, errors.New("persistence: decompressed size mismatch")
		}
		return out, nil

	case CompressionZstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, err
		}
		if uint64(len(out)) != uncompressedSize {
			return nil, errors.New("persistence: decompressed size mismatch")
		}
		return out, nil

	default:
		return nil, errors.New("persistence: unknown compression")
	}
}
