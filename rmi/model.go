package rmi

import "math"

// Leaf is a second-layer model plus the worst-case absolute error of its
// predictions over the keys it was trained on.
type Leaf struct {
	Linear
	ErrBound uint64
}

// Model is an immutable trained index.
type Model struct {
	root   Linear
	leaves []Leaf

	numKeys         uint64
	branchingFactor int
	buildTimeNs     uint64
	avgError        float64
	maxError        uint64
}

// NumKeys returns the number of keys the model was trained on.
func (m *Model) NumKeys() uint64 { return m.numKeys }

// NumLeaves returns the number of second-layer models.
func (m *Model) NumLeaves() int { return len(m.leaves) }

// BranchingFactor returns the configured keys-per-leaf target.
func (m *Model) BranchingFactor() int { return m.branchingFactor }

// BuildTimeNs returns the wall-clock training time in nanoseconds.
func (m *Model) BuildTimeNs() uint64 { return m.buildTimeNs }

// AvgError returns the mean absolute prediction error over the training keys.
func (m *Model) AvgError() float64 { return m.avgError }

// MaxError returns the largest leaf error bound.
func (m *Model) MaxError() uint64 { return m.maxError }

// SizeBytes returns the in-memory size of the model parameters:
// the root line plus slope, intercept and error bound per leaf.
func (m *Model) SizeBytes() int64 {
	return 16 + 24*int64(len(m.leaves))
}

func (m *Model) leafIndex(key uint64) int {
	idx := int(m.root.Predict(float64(key)))
	if idx < 0 {
		return 0
	}
	if idx >= len(m.leaves) {
		return len(m.leaves) - 1
	}
	return idx
}

// Predict returns the estimated position of key in the sorted array and the
// error bound of the leaf that produced the estimate. The true position of a
// present key lies within [pos-errBound, pos+errBound], clamped to the array.
func (m *Model) Predict(key uint64) (pos uint64, errBound uint64) {
	leaf := m.leaves[m.leafIndex(key)]

	guess := math.Round(leaf.Predict(float64(key)))
	if guess < 0 {
		guess = 0
	}
	if max := float64(m.numKeys - 1); guess > max {
		guess = max
	}
	return uint64(guess), leaf.ErrBound
}
