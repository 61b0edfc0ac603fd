// Package hash provides checksum helpers for persisted model data.
package hash
