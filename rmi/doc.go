// Package rmi implements a two-layer recursive model index over sorted
// uint64 keys.
//
// The root layer is a single linear model mapping a key to one of N leaf
// models; each leaf is a linear model mapping the key to its position in the
// sorted array. Leaves carry the worst-case absolute prediction error
// observed at training time, so a lookup returns both a predicted position
// and a bound the caller can scan within.
//
// Models are immutable once trained. The Engine type adds the mutable
// load/release lifecycle around them.
package rmi
