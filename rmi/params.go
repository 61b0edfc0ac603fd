package rmi

import (
	"encoding/binary"
	"errors"
	"math"
)

// Parameter payload layout (little-endian), wrapped by the persistence
// block framing before it reaches storage:
//
//	numKeys          u64
//	branchingFactor  u32
//	numLeaves        u32
//	rootSlope        f64
//	rootIntercept    f64
//	per leaf: slope f64 | intercept f64 | errBound u64
const (
	paramsFixedSize   = 8 + 4 + 4 + 8 + 8
	paramsPerLeafSize = 8 + 8 + 8
)

var ErrMalformedParams = errors.New("rmi: malformed parameter payload")

// EncodeParams serializes the model parameters.
func EncodeParams(m *Model) []byte {
	out := make([]byte, paramsFixedSize+paramsPerLeafSize*len(m.leaves))

	binary.LittleEndian.PutUint64(out[0:], m.numKeys)
	binary.LittleEndian.PutUint32(out[8:], uint32(m.branchingFactor))
	binary.LittleEndian.PutUint32(out[12:], uint32(len(m.leaves)))
	binary.LittleEndian.PutUint64(out[16:], math.Float64bits(m.root.Slope))
	binary.LittleEndian.PutUint64(out[24:], math.Float64bits(m.root.Intercept))

	off := paramsFixedSize
	for _, leaf := range m.leaves {
		binary.LittleEndian.PutUint64(out[off:], math.Float64bits(leaf.Slope))
		binary.LittleEndian.PutUint64(out[off+8:], math.Float64bits(leaf.Intercept))
		binary.LittleEndian.PutUint64(out[off+16:], leaf.ErrBound)
		off += paramsPerLeafSize
	}
	return out
}

// DecodeParams deserializes model parameters. Training stats that live in
// the manifest (build time, error aggregates) are left zero; callers fill
// them in from the manifest.
func DecodeParams(data []byte) (*Model, error) {
	if len(data) < paramsFixedSize {
		return nil, ErrMalformedParams
	}

	numKeys := binary.LittleEndian.Uint64(data[0:])
	branching := binary.LittleEndian.Uint32(data[8:])
	numLeaves := binary.LittleEndian.Uint32(data[12:])

	if numKeys == 0 || numLeaves == 0 || branching == 0 {
		return nil, ErrMalformedParams
	}
	if uint64(len(data)-paramsFixedSize) != uint64(numLeaves)*paramsPerLeafSize {
		return nil, ErrMalformedParams
	}

	m := &Model{
		root: Linear{
			Slope:     math.Float64frombits(binary.LittleEndian.Uint64(data[16:])),
			Intercept: math.Float64frombits(binary.LittleEndian.Uint64(data[24:])),
		},
		leaves:          make([]Leaf, numLeaves),
		numKeys:         numKeys,
		branchingFactor: int(branching),
	}

	off := paramsFixedSize
	for i := range m.leaves {
		m.leaves[i] = Leaf{
			Linear: Linear{
				Slope:     math.Float64frombits(binary.LittleEndian.Uint64(data[off:])),
				Intercept: math.Float64frombits(binary.LittleEndian.Uint64(data[off+8:])),
			},
			ErrBound: binary.LittleEndian.Uint64(data[off+16:]),
		}
		if m.leaves[i].ErrBound > m.maxError {
			m.maxError = m.leaves[i].ErrBound
		}
		off += paramsPerLeafSize
	}
	return m, nil
}
