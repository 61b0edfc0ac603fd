// Package minio implements blobstore.BlobStore for MinIO and other
// S3-compatible object stores, including self-hosted deployments where the
// AWS SDK is unwanted.
package minio
