package rmigo

import (
	"context"
	"time"

	"github.com/hupe1980/rmigo/blobstore"
	"github.com/hupe1980/rmigo/persistence"
	"github.com/hupe1980/rmigo/resource"
	"github.com/hupe1980/rmigo/rmi"
)

// BuildOptions configures Build.
type BuildOptions struct {
	// Namespace is the model subdirectory created under the root path.
	Namespace string
	// BranchingFactor is the target number of keys per leaf model.
	BranchingFactor int
	// Parallelism caps concurrent leaf fits during training.
	Parallelism int
	// Compression selects how the parameter blob is stored.
	Compression persistence.Compression
	// Controller throttles the model upload through its IO limit.
	// Nil means unthrottled.
	Controller *resource.Controller

	// Metrics and Logger observe the training run. Defaults to noop.
	Metrics MetricsCollector
	Logger  *Logger
}

func defaultBuildOptions() BuildOptions {
	return BuildOptions{
		Namespace:   DefaultNamespace,
		Compression: persistence.CompressionZstd,
		Metrics:     NoopMetricsCollector{},
		Logger:      NoopLogger(),
	}
}

// Build trains a model over the sorted key set and persists it under
// root/namespace, ready to be picked up by Load. Keys must be ascending;
// duplicates are allowed.
func Build(ctx context.Context, root string, keys []uint64, optFns ...func(o *BuildOptions)) error {
	opts := defaultBuildOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return buildToStore(ctx, blobstore.NewLocalStore(root), keys, opts)
}

// BuildToStore trains a model and persists it under a namespace in any blob
// store. Use this to publish models straight to S3 or MinIO.
func BuildToStore(ctx context.Context, store blobstore.BlobStore, namespace string, keys []uint64, optFns ...func(o *BuildOptions)) error {
	opts := defaultBuildOptions()
	opts.Namespace = namespace
	for _, fn := range optFns {
		fn(&opts)
	}
	return buildToStore(ctx, store, keys, opts)
}

func buildToStore(ctx context.Context, store blobstore.BlobStore, keys []uint64, opts BuildOptions) error {
	start := time.Now()

	m, err := rmi.Train(ctx, keys, func(o *rmi.TrainOptions) {
		if opts.BranchingFactor > 0 {
			o.BranchingFactor = opts.BranchingFactor
		}
		if opts.Parallelism > 0 {
			o.Parallelism = opts.Parallelism
		}
	})
	if err == nil {
		err = rmi.Save(ctx, store, opts.Namespace, m, func(o *rmi.SaveOptions) {
			o.Compression = opts.Compression
			o.Controller = opts.Controller
		})
	}

	opts.Metrics.RecordTrain(len(keys), time.Since(start), err)
	opts.Logger.LogTrain(ctx, len(keys), time.Since(start), err)
	return err
}
