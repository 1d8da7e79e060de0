// This file implements the linear scan sweep.

package eviction

import (
	"time"

	"github.com/krisalay/expiry-cache/shard"
	"github.com/krisalay/expiry-cache/types"
)

type linear[K comparable, V any] struct{}

func newLinear[K comparable, V any]() *linear[K, V] {
	return &linear[K, V]{}
}

// OnPut is a no-op. The next pass will find the entry anyway.
func (*linear[K, V]) OnPut(K, *types.Entry[V]) {}

// Sweep inspects every stored entry, expired or not.
func (*linear[K, V]) Sweep(now time.Time, store shard.ShardStore[K, V]) int {
	return store.DeleteExpired(now)
}

func (*linear[K, V]) Len() int { return 0 }
