// Package blobstore abstracts the storage a trained model is loaded from.
//
// A model directory is a small set of immutable blobs (a JSON manifest plus a
// parameter blob). The BlobStore interface lets the engine read those blobs
// from the local file system (zero-copy via mmap), from memory (tests), or
// from object storage (S3, MinIO) without changing the load path.
package blobstore
