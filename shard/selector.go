package shard

import (
	"hash/maphash"
	"math/bits"
)

/*
This file decides HOW a key is assigned to a shard.
If every request went to the same shard, that shard would become a bottleneck.
*/

// Selector returns the index of the shard that owns key.
type Selector[K comparable] interface {
	Select(key K) int
}

/*
PowerOfTwoSelector spreads keys over a power-of-two number of shards.
Keys of any comparable type are hashed with maphash, and the shard index is
taken with a bit mask instead of a modulo.
*/
type PowerOfTwoSelector[K comparable] struct {
	seed maphash.Seed
	mask uint64
}

// NewPowerOfTwoSelector builds a selector for n shards. n must be a power of two.
func NewPowerOfTwoSelector[K comparable](n int) *PowerOfTwoSelector[K] {
	return &PowerOfTwoSelector[K]{
		seed: maphash.MakeSeed(),
		mask: uint64(n - 1), //nolint:gosec
	}
}

func (p *PowerOfTwoSelector[K]) Select(key K) int {
	return int(maphash.Comparable(p.seed, key) & p.mask) //nolint:gosec
}

// RoundShards rounds n up to the next power of two, with a floor of one.
func RoundShards(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(n-1))
}
