// Package testutil provides deterministic key-set generators and ground
// truth helpers for index tests and benchmarks.
package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// UniformKeys generates n sorted keys drawn uniformly from [0, maxKey).
// Duplicates are possible and kept; learned indexes must tolerate them.
func (r *RNG) UniformKeys(n int, maxKey uint64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = r.rand.Uint64() % maxKey
	}
	sortKeys(keys)
	return keys
}

// ClusteredKeys generates n sorted keys grouped into dense clusters with
// wide gaps between them. This is the adversarial case for a single linear
// root model: per-cluster densities differ wildly.
func (r *RNG) ClusteredKeys(n, clusters int, clusterWidth uint64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clusters < 1 {
		clusters = 1
	}

	// Spread cluster origins across the key space, far apart relative to
	// their width.
	origins := make([]uint64, clusters)
	gap := (math.MaxUint64 / uint64(clusters)) / 2
	for i := range origins {
		origins[i] = uint64(i)*gap*2 + r.rand.Uint64()%gap
	}

	keys := make([]uint64, n)
	for i := range keys {
		origin := origins[i%clusters]
		keys[i] = origin + r.rand.Uint64()%clusterWidth
	}
	sortKeys(keys)
	return keys
}

// SequentialKeys generates n keys spaced exactly stride apart, starting at
// start. A linear model fits this perfectly, so error bounds should be 0.
func SequentialKeys(n int, start, stride uint64) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = start + uint64(i)*stride
	}
	return keys
}

// ZipfGapKeys generates n sorted keys whose successive gaps follow a heavy
// tail: mostly 1, occasionally huge. Stresses leaf error bounds.
func (r *RNG) ZipfGapKeys(n int, s float64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	zipf := rand.NewZipf(r.rand, s, 1, 1<<20)
	keys := make([]uint64, n)
	var cur uint64
	for i := range keys {
		cur += zipf.Uint64() + 1
		keys[i] = cur
	}
	return keys
}

// TruePosition returns the index of the first occurrence of key in the
// sorted slice, or the insertion point if absent.
func TruePosition(keys []uint64, key uint64) uint64 {
	return uint64(sort.Search(len(keys), func(i int) bool {
		return keys[i] >= key
	}))
}

// Contains reports whether the true position of key falls within
// [pos-errBound, pos+errBound], clamped to the slice.
func Contains(keys []uint64, key uint64, pos, errBound uint64) bool {
	truePos := TruePosition(keys, key)

	lo := uint64(0)
	if pos > errBound {
		lo = pos - errBound
	}
	hi := pos + errBound
	if max := uint64(len(keys) - 1); hi > max {
		hi = max
	}
	return truePos >= lo && truePos <= hi
}

func sortKeys(keys []uint64) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
