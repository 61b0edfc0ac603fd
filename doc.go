// Package rmigo provides a learned index for sorted uint64 key sets.
//
// A learned index replaces the comparison tree of a classic index with a
// small hierarchy of regression models. Given a key, the model predicts the
// key's position in the sorted array together with a worst-case error bound
// established at training time; the caller finishes with a bounded local
// search inside that window. For read-only workloads the model is orders of
// magnitude smaller than a B-tree over the same data.
//
// # Quick Start
//
// Train and publish a model, then serve lookups from it:
//
//	ctx := context.Background()
//
//	err := rmigo.Build(ctx, "./models", keys)          // train + persist
//
//	idx := rmigo.New()
//	err = idx.Load(ctx, "./models")                    // make it resident
//
//	p, err := idx.Lookup(key)
//	lo, hi := p.Window(uint64(len(keys)))              // bounded scan range
//	// scan keys[lo:hi] for the exact match
//
// Models live in a directory holding a manifest.json plus a checksummed,
// optionally compressed parameter blob. Load resolves "root/namespace" and
// falls back to "root" when the namespace subdirectory does not exist, so a
// directory that is itself a model directory loads directly.
//
// # Cloud storage
//
// Any blobstore.BlobStore works as a model source:
//
//	store := s3.NewStore(client, "my-bucket", "models/")
//	err := idx.LoadFromStore(ctx, store, "ints_64")
//
// # Lifecycle
//
// A LearnedIndex is either loaded or unloaded. Load replaces any resident
// model; a failed Load leaves the index unloaded rather than serving stale
// state. Cleanup releases the model and is idempotent. Lookups may run
// concurrently with each other; Load and Cleanup are single-writer calls.
package rmigo
