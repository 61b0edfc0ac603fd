package rmigo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/rmigo/blobstore"
	"github.com/hupe1980/rmigo/rmi"
)

// DefaultNamespace is the model subdirectory Load looks for under the root
// path when no namespace is given.
const DefaultNamespace = "default"

// Prediction is a position estimate for a key.
type Prediction struct {
	// Pos is the predicted index of the key in the sorted array.
	Pos uint64
	// Err is the worst-case absolute error of Pos. For a key present in
	// the trained set, the true position lies within [Pos-Err, Pos+Err].
	Err uint64
}

// Window returns the half-open scan range [lo, hi) implied by the
// prediction, clamped to an array of n elements.
func (p Prediction) Window(n uint64) (lo, hi uint64) {
	if p.Pos > p.Err {
		lo = p.Pos - p.Err
	}
	hi = p.Pos + p.Err + 1
	if hi > n {
		hi = n
	}
	if lo > n {
		lo = n
	}
	return lo, hi
}

// LearnedIndex serves position predictions from a trained model.
//
// Lookups are safe to call concurrently with each other. Load, Cleanup and
// Close are single-writer operations: do not call them concurrently with
// each other. Lookups racing a Load or Cleanup observe either the old or
// the new state, never a mix.
type LearnedIndex struct {
	opts options

	engine   *rmi.Engine
	dataPath string
}

// New creates an unloaded index.
func New(optFns ...Option) *LearnedIndex {
	return &LearnedIndex{
		opts: applyOptions(optFns),
	}
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Namespace is the model subdirectory under the root path.
	Namespace string
}

// Load makes the model under root resident, replacing any previously loaded
// model. It resolves "root/namespace" first and falls back to "root" itself
// when the namespace subdirectory does not exist, so both layouts work:
//
//	./models/ints_64/manifest.json   Load(ctx, "./models", ...Namespace="ints_64")
//	./model/manifest.json            Load(ctx, "./model")
//
// A failed Load is destructive: the index ends up unloaded even if a model
// was resident before.
func (li *LearnedIndex) Load(ctx context.Context, root string, optFns ...func(o *LoadOptions)) error {
	opts := LoadOptions{Namespace: DefaultNamespace}
	for _, fn := range optFns {
		fn(&opts)
	}

	dir := filepath.Join(root, opts.Namespace)
	if _, err := os.Stat(dir); err != nil {
		dir = root
	}
	li.dataPath = dir

	// The resolved directory is the model directory itself, so the engine
	// reads blobs at the store root.
	return li.load(ctx, blobstore.NewLocalStore(dir), "")
}

// LoadFromStore makes the model under namespace in a blob store resident.
// Use this for models published to S3, MinIO, or any other BlobStore.
func (li *LearnedIndex) LoadFromStore(ctx context.Context, store blobstore.BlobStore, namespace string) error {
	li.dataPath = namespace
	return li.load(ctx, store, namespace)
}

func (li *LearnedIndex) load(ctx context.Context, store blobstore.BlobStore, namespace string) error {
	// Drop the previous engine up front: its store may point elsewhere.
	if li.engine != nil {
		li.engine.Cleanup()
	}

	li.engine = rmi.NewEngine(store, namespace, func(o *rmi.EngineOptions) {
		o.Logger = li.opts.logger.Logger
		o.Controller = li.opts.controller
	})

	start := time.Now()
	err := translateError(li.engine.Load(ctx))
	li.opts.metricsCollector.RecordLoad(time.Since(start), err)
	li.opts.logger.LogLoad(ctx, li.dataPath, li.engine.SizeBytes(), err)
	return err
}

// Lookup predicts the position of key. It returns ErrNotLoaded when no
// model is resident.
func (li *LearnedIndex) Lookup(key uint64) (Prediction, error) {
	start := time.Now()

	if li.engine == nil {
		li.opts.metricsCollector.RecordLookup(time.Since(start), ErrNotLoaded)
		return Prediction{}, ErrNotLoaded
	}

	pos, errBound, ok := li.engine.Predict(key)
	if !ok {
		li.opts.metricsCollector.RecordLookup(time.Since(start), ErrNotLoaded)
		return Prediction{}, ErrNotLoaded
	}

	li.opts.metricsCollector.RecordLookup(time.Since(start), nil)
	return Prediction{Pos: pos, Err: errBound}, nil
}

// LookupUnchecked predicts the position of key without lifecycle checks or
// metrics. The caller must ensure the index is loaded; use it on hot paths
// where Loaded was verified once up front.
func (li *LearnedIndex) LookupUnchecked(key uint64) (pos uint64, errBound uint64) {
	return li.engine.Model().Predict(key)
}

// Loaded reports whether a model is resident. It is true exactly when the
// most recent Load returned nil and no Cleanup happened since.
func (li *LearnedIndex) Loaded() bool {
	return li.engine != nil && li.engine.Resident()
}

// DataPath returns the resolved model location of the most recent Load.
// For blob stores this is the namespace.
func (li *LearnedIndex) DataPath() string {
	return li.dataPath
}

// SizeBytes returns the in-memory size of the resident model parameters,
// or zero when unloaded.
func (li *LearnedIndex) SizeBytes() int64 {
	if li.engine == nil {
		return 0
	}
	return li.engine.SizeBytes()
}

// BuildTimeNs returns the training wall-clock time of the resident model in
// nanoseconds, or zero when unloaded.
func (li *LearnedIndex) BuildTimeNs() uint64 {
	if li.engine == nil {
		return 0
	}
	return li.engine.BuildTimeNs()
}

// Cleanup releases the resident model. The engine release is issued even
// when nothing is resident; it is idempotent. Metrics and logs only record
// cleanups that actually released a model.
func (li *LearnedIndex) Cleanup() {
	if li.engine == nil {
		return
	}

	size := li.engine.SizeBytes()
	li.engine.Cleanup()

	if size > 0 {
		li.opts.metricsCollector.RecordCleanup()
		li.opts.logger.LogCleanup(context.Background(), size)
	}
}
