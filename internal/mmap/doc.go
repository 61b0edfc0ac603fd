// Package mmap provides read-only memory-mapped file access.
//
// Model parameter files are loaded once and then read many times during
// lookups, so the local blob store maps them instead of copying them through
// kernel buffers.
//
// Unix (Linux, macOS, BSD) uses mmap(2); Windows uses
// CreateFileMapping/MapViewOfFile. Mapped data is safe for concurrent reads,
// but callers must ensure no goroutine touches Data after Close returns.
package mmap
