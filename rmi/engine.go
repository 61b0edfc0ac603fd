package rmi

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/hupe1980/rmigo/blobstore"
	"github.com/hupe1980/rmigo/resource"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	// Logger receives structured load/release events. Defaults to discard.
	Logger *slog.Logger
	// Controller enforces memory and concurrency limits across engines.
	// Nil means unlimited.
	Controller *resource.Controller
}

// Engine is a model handle bound to one namespace in a blob store. It owns
// the load/release lifecycle around the immutable Model.
//
// Predict is safe to call concurrently with itself. Load and Cleanup are
// single-writer operations: callers must not run them concurrently with each
// other, though lookups may continue during either and will simply observe
// the model state before or after the swap.
type Engine struct {
	store     blobstore.BlobStore
	namespace string
	logger    *slog.Logger
	rc        *resource.Controller

	model atomic.Pointer[Model]
}

// NewEngine creates an engine for a namespace. No IO happens until Load.
func NewEngine(store blobstore.BlobStore, namespace string, optFns ...func(o *EngineOptions)) *Engine {
	opts := EngineOptions{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		store:     store,
		namespace: namespace,
		logger:    opts.Logger,
		rc:        opts.Controller,
	}
}

// Namespace returns the namespace this engine reads from.
func (e *Engine) Namespace() string { return e.namespace }

// Load reads the model from the store and makes it resident, replacing any
// previously resident model. A failed load is destructive: the engine ends
// up non-resident, never serving a half-replaced model.
func (e *Engine) Load(ctx context.Context) error {
	if err := e.rc.AcquireLoadSlot(ctx); err != nil {
		e.release()
		return err
	}
	defer e.rc.ReleaseLoadSlot()

	m, err := Load(ctx, e.store, e.namespace, func(o *LoadOptions) {
		o.Controller = e.rc
	})
	if err != nil {
		e.release()
		e.logger.ErrorContext(ctx, "model load failed",
			"namespace", e.namespace,
			"error", err,
		)
		return err
	}

	if err := e.rc.AcquireMemory(ctx, m.SizeBytes()); err != nil {
		e.release()
		return err
	}

	if old := e.model.Swap(m); old != nil {
		e.rc.ReleaseMemory(old.SizeBytes())
	}

	e.logger.InfoContext(ctx, "model loaded",
		"namespace", e.namespace,
		"num_keys", m.NumKeys(),
		"num_leaves", m.NumLeaves(),
		"size_bytes", m.SizeBytes(),
		"max_error", m.MaxError(),
	)
	return nil
}

// Cleanup releases the resident model. Calling it on a non-resident engine
// is a no-op.
func (e *Engine) Cleanup() {
	e.release()
}

func (e *Engine) release() {
	if old := e.model.Swap(nil); old != nil {
		e.rc.ReleaseMemory(old.SizeBytes())
		e.logger.Info("model released",
			"namespace", e.namespace,
			"size_bytes", old.SizeBytes(),
		)
	}
}

// Resident reports whether a model is loaded.
func (e *Engine) Resident() bool {
	return e.model.Load() != nil
}

// Model returns the resident model, or nil.
func (e *Engine) Model() *Model {
	return e.model.Load()
}

// Predict returns the position estimate and error bound for key.
// ok is false when no model is resident; pos and errBound are then zero.
func (e *Engine) Predict(key uint64) (pos uint64, errBound uint64, ok bool) {
	m := e.model.Load()
	if m == nil {
		return 0, 0, false
	}
	pos, errBound = m.Predict(key)
	return pos, errBound, true
}

// SizeBytes returns the resident model's parameter size, or zero when
// non-resident.
func (e *Engine) SizeBytes() int64 {
	if m := e.model.Load(); m != nil {
		return m.SizeBytes()
	}
	return 0
}

// BuildTimeNs returns the resident model's training time, or zero when
// non-resident.
func (e *Engine) BuildTimeNs() uint64 {
	if m := e.model.Load(); m != nil {
		return m.BuildTimeNs()
	}
	return 0
}
