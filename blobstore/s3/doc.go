// Package s3 implements blobstore.BlobStore on top of AWS S3.
//
// Model directories map to key prefixes: "ints_64/manifest.json",
// "ints_64/rmi.params". Reads use ranged GETs, so lookups against the
// manifest never download the parameter blob.
//
// CommitStore adds a DynamoDB-backed commit log for atomically publishing
// new model versions under a prefix, which S3 alone cannot do safely with
// concurrent trainers.
package s3
