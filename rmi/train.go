package rmi

import (
	"context"
	"errors"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBranchingFactor is the target number of keys per leaf model.
const DefaultBranchingFactor = 1024

var (
	// ErrNoKeys is returned when training on an empty key set.
	ErrNoKeys = errors.New("rmi: no keys to train on")
	// ErrUnsortedKeys is returned when the key set is not ascending.
	ErrUnsortedKeys = errors.New("rmi: keys must be sorted ascending")
)

// TrainOptions configures training.
type TrainOptions struct {
	// BranchingFactor is the target number of keys per leaf model. Smaller
	// values give tighter error bounds at the cost of model size.
	BranchingFactor int

	// Parallelism caps the number of leaf fits running concurrently.
	// Defaults to GOMAXPROCS.
	Parallelism int
}

// Train fits a two-layer model to the sorted key set. Keys must be in
// ascending order; duplicates are allowed.
func Train(ctx context.Context, keys []uint64, optFns ...func(o *TrainOptions)) (*Model, error) {
	opts := TrainOptions{
		BranchingFactor: DefaultBranchingFactor,
		Parallelism:     runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BranchingFactor <= 0 {
		opts.BranchingFactor = DefaultBranchingFactor
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}

	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			return nil, ErrUnsortedKeys
		}
	}

	start := time.Now()

	n := uint64(len(keys))
	numLeaves := (len(keys) + opts.BranchingFactor - 1) / opts.BranchingFactor

	// Root layer: map key to leaf index. Targets are positions rescaled to
	// leaf space, so the fitted line lands keys near their leaf.
	var rootFit fitter
	scale := float64(numLeaves) / float64(n)
	for i, key := range keys {
		rootFit.Add(float64(key), float64(i)*scale)
	}
	root := rootFit.Fit()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := &Model{
		root:            root,
		leaves:          make([]Leaf, numLeaves),
		numKeys:         n,
		branchingFactor: opts.BranchingFactor,
	}

	// Keys and root targets are both non-decreasing, so the fitted slope is
	// non-negative and leaf assignment is monotone: each leaf owns a
	// contiguous key range.
	bounds := make([]int, numLeaves+1)
	idx := 0
	for leaf := 1; leaf < numLeaves; leaf++ {
		for idx < len(keys) && m.leafIndex(keys[idx]) < leaf {
			idx++
		}
		bounds[leaf] = idx
	}
	bounds[numLeaves] = len(keys)

	errSums := make([]float64, numLeaves)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)

	for leaf := 0; leaf < numLeaves; leaf++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			lo, hi := bounds[leaf], bounds[leaf+1]
			if lo == hi {
				return nil // filled in from a neighbor below
			}

			var fit fitter
			for i := lo; i < hi; i++ {
				fit.Add(float64(keys[i]), float64(i))
			}
			line := fit.Fit()

			var maxErr, sumErr float64
			for i := lo; i < hi; i++ {
				diff := math.Abs(math.Round(line.Predict(float64(keys[i]))) - float64(i))
				if diff > maxErr {
					maxErr = diff
				}
				sumErr += diff
			}

			m.leaves[leaf] = Leaf{Linear: line, ErrBound: uint64(maxErr)}
			errSums[leaf] = sumErr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Empty leaves inherit a neighbor so every key that predicts into them
	// still gets a sane position estimate.
	fillEmptyLeaves(m.leaves, bounds)

	var sumErr float64
	for leaf := 0; leaf < numLeaves; leaf++ {
		sumErr += errSums[leaf]
		if b := m.leaves[leaf].ErrBound; b > m.maxError {
			m.maxError = b
		}
	}
	m.avgError = sumErr / float64(n)
	m.buildTimeNs = uint64(time.Since(start).Nanoseconds())

	return m, nil
}

func fillEmptyLeaves(leaves []Leaf, bounds []int) {
	last := -1
	for i := range leaves {
		if bounds[i] != bounds[i+1] {
			last = i
			continue
		}
		if last >= 0 {
			leaves[i] = leaves[last]
		}
	}
	// Leading empties inherit the first trained leaf.
	first := -1
	for i := range leaves {
		if bounds[i] != bounds[i+1] {
			first = i
			break
		}
	}
	if first > 0 {
		for i := 0; i < first; i++ {
			leaves[i] = leaves[first]
		}
	}
}
