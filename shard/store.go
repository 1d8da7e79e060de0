package shard

import (
	"sync/atomic"
	"time"

	"github.com/krisalay/expiry-cache/types"
)

/*
This file defines how entries are actually stored. Requirements:
- Any number of callers read and write concurrently with the sweeper
- A read that finds a stale entry must be able to remove exactly that entry,
  never a value that a concurrent Put just refreshed
- The size must be readable on every Put without walking the shards
*/

// ShardStore is the interface the cache uses to store and retrieve entries.
type ShardStore[K comparable, V any] interface {

	// Get retrieves an entry by key.
	Get(K) (*types.Entry[V], bool)

	// Put inserts or replaces an entry.
	Put(K, *types.Entry[V])

	// Delete removes an entry. Removing an absent key is a no-op.
	Delete(K)

	// CompareAndDelete removes the key only if it still maps to the given entry.
	CompareAndDelete(K, *types.Entry[V]) bool

	// DeleteIf removes the key only if cond holds for the stored entry.
	DeleteIf(K, func(*types.Entry[V]) bool) bool

	// DeleteExpired removes every entry expired at the given instant.
	DeleteExpired(time.Time) int

	// Size returns how many entries are stored, expired ones included.
	Size() int64
}

// shardedStore is the ShardStore used by the cache.
type shardedStore[K comparable, V any] struct {
	shards   []*Shard[K, V]
	selector Selector[K]

	// size tracks the number of entries so Put can read it without touching every shard.
	size atomic.Int64
}

// NewShardedStore creates a store with n shards; n is rounded up to a power of two.
func NewShardedStore[K comparable, V any](n int) ShardStore[K, V] {
	n = RoundShards(n)

	s := make([]*Shard[K, V], n)
	for i := range s {
		s[i] = NewShard[K, V]()
	}

	return &shardedStore[K, V]{
		shards:   s,
		selector: NewPowerOfTwoSelector[K](n),
	}
}

func (s *shardedStore[K, V]) shardFor(key K) *Shard[K, V] {
	return s.shards[s.selector.Select(key)]
}

func (s *shardedStore[K, V]) Get(key K) (*types.Entry[V], bool) {
	return s.shardFor(key).get(key)
}

func (s *shardedStore[K, V]) Put(key K, ent *types.Entry[V]) {
	if s.shardFor(key).put(key, ent) {
		s.size.Add(1)
	}
}

func (s *shardedStore[K, V]) Delete(key K) {
	if s.shardFor(key).delete(key) {
		s.size.Add(-1)
	}
}

func (s *shardedStore[K, V]) CompareAndDelete(key K, ent *types.Entry[V]) bool {
	return s.DeleteIf(key, func(cur *types.Entry[V]) bool { return cur == ent })
}

func (s *shardedStore[K, V]) DeleteIf(key K, cond func(*types.Entry[V]) bool) bool {
	if !s.shardFor(key).deleteIf(key, cond) {
		return false
	}

	s.size.Add(-1)

	return true
}

// DeleteExpired visits the shards one after another. Entries written to a shard
// after it was visited are left for the next pass.
func (s *shardedStore[K, V]) DeleteExpired(now time.Time) int {
	removed := 0

	for _, sh := range s.shards {
		n := sh.deleteExpired(now)
		if n != 0 {
			s.size.Add(int64(-n))
			removed += n
		}
	}

	return removed
}

func (s *shardedStore[K, V]) Size() int64 {
	return s.size.Load()
}
