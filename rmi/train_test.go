package rmi

import (
	"context"
	"testing"

	"github.com/hupe1980/rmigo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := Train(ctx, nil)
	assert.ErrorIs(t, err, ErrNoKeys)

	_, err = Train(ctx, []uint64{3, 2, 1})
	assert.ErrorIs(t, err, ErrUnsortedKeys)
}

func TestTrainSingleKey(t *testing.T) {
	m, err := Train(context.Background(), []uint64{42})
	require.NoError(t, err)

	pos, errBound := m.Predict(42)
	assert.Equal(t, uint64(0), pos)
	assert.Equal(t, uint64(0), errBound)
	assert.Equal(t, uint64(1), m.NumKeys())
	assert.Equal(t, 1, m.NumLeaves())
}

func TestTrainSequentialKeysAreExact(t *testing.T) {
	keys := testutil.SequentialKeys(10_000, 1000, 7)

	m, err := Train(context.Background(), keys, func(o *TrainOptions) {
		o.BranchingFactor = 256
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), m.MaxError())
	for i, key := range keys {
		pos, _ := m.Predict(key)
		assert.Equal(t, uint64(i), pos)
	}
}

func TestTrainErrorBoundContainment(t *testing.T) {
	rng := testutil.NewRNG(1)

	cases := map[string][]uint64{
		"uniform":   rng.UniformKeys(50_000, 1<<40),
		"clustered": rng.ClusteredKeys(50_000, 10, 1<<16),
		"zipf_gaps": rng.ZipfGapKeys(50_000, 1.5),
	}

	for name, keys := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := Train(context.Background(), keys, func(o *TrainOptions) {
				o.BranchingFactor = 512
			})
			require.NoError(t, err)

			for _, key := range keys {
				pos, errBound := m.Predict(key)
				require.True(t, testutil.Contains(keys, key, pos, errBound),
					"key %d predicted at %d with bound %d, true position %d",
					key, pos, errBound, testutil.TruePosition(keys, key))
			}
		})
	}
}

func TestTrainDuplicateKeys(t *testing.T) {
	keys := make([]uint64, 1000)
	for i := range keys {
		keys[i] = uint64(i / 10) // runs of 10 duplicates
	}

	m, err := Train(context.Background(), keys, func(o *TrainOptions) {
		o.BranchingFactor = 64
	})
	require.NoError(t, err)

	for _, key := range keys {
		pos, errBound := m.Predict(key)
		assert.True(t, testutil.Contains(keys, key, pos, errBound))
	}
}

func TestTrainAllSameKey(t *testing.T) {
	keys := make([]uint64, 100)
	for i := range keys {
		keys[i] = 7
	}

	m, err := Train(context.Background(), keys)
	require.NoError(t, err)

	pos, errBound := m.Predict(7)
	assert.True(t, testutil.Contains(keys, 7, pos, errBound))
}

func TestTrainBranchingFactorControlsLeaves(t *testing.T) {
	keys := testutil.SequentialKeys(10_000, 0, 1)

	coarse, err := Train(context.Background(), keys, func(o *TrainOptions) {
		o.BranchingFactor = 5000
	})
	require.NoError(t, err)
	assert.Equal(t, 2, coarse.NumLeaves())

	fine, err := Train(context.Background(), keys, func(o *TrainOptions) {
		o.BranchingFactor = 100
	})
	require.NoError(t, err)
	assert.Equal(t, 100, fine.NumLeaves())

	assert.Greater(t, fine.SizeBytes(), coarse.SizeBytes())
}

func TestTrainCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, testutil.SequentialKeys(1000, 0, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainRecordsStats(t *testing.T) {
	rng := testutil.NewRNG(2)
	keys := rng.UniformKeys(20_000, 1<<32)

	m, err := Train(context.Background(), keys)
	require.NoError(t, err)

	assert.Positive(t, m.BuildTimeNs())
	assert.GreaterOrEqual(t, float64(m.MaxError()), m.AvgError())
	assert.Equal(t, uint64(len(keys)), m.NumKeys())
}
