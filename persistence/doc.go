// Package persistence implements the binary container format for model
// parameter blobs.
//
// A parameter blob is a single framed block: a fixed header carrying magic,
// format version, compression algorithm and a CRC32C of the stored payload,
// followed by the payload itself. The checksum covers the payload as stored
// (after compression), so corruption is detected before any decompression
// work happens.
//
// CRC32C (Castagnoli) is hardware-accelerated on amd64 and arm64. It detects
// accidental corruption only; it is not a defense against tampering.
package persistence
