// Package fs abstracts file system operations so that persistence code can be
// tested against injected failures (full disk, failed fsync) without touching
// the real file system.
package fs
