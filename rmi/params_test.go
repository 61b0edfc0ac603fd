package rmi

import (
	"context"
	"testing"

	"github.com/hupe1980/rmigo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(3)
	keys := rng.UniformKeys(10_000, 1<<32)

	m, err := Train(context.Background(), keys, func(o *TrainOptions) {
		o.BranchingFactor = 256
	})
	require.NoError(t, err)

	got, err := DecodeParams(EncodeParams(m))
	require.NoError(t, err)

	assert.Equal(t, m.root, got.root)
	assert.Equal(t, m.leaves, got.leaves)
	assert.Equal(t, m.numKeys, got.numKeys)
	assert.Equal(t, m.branchingFactor, got.branchingFactor)
	assert.Equal(t, m.maxError, got.maxError)

	// Decoded models must predict identically.
	for _, key := range keys[:100] {
		wantPos, wantErr := m.Predict(key)
		gotPos, gotErr := got.Predict(key)
		assert.Equal(t, wantPos, gotPos)
		assert.Equal(t, wantErr, gotErr)
	}
}

func TestDecodeParamsMalformed(t *testing.T) {
	_, err := DecodeParams(nil)
	assert.ErrorIs(t, err, ErrMalformedParams)

	_, err = DecodeParams(make([]byte, 10))
	assert.ErrorIs(t, err, ErrMalformedParams)

	m, err := Train(context.Background(), testutil.SequentialKeys(100, 0, 1))
	require.NoError(t, err)

	params := EncodeParams(m)

	// Truncated leaf table.
	_, err = DecodeParams(params[:len(params)-1])
	assert.ErrorIs(t, err, ErrMalformedParams)
}
