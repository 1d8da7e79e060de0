package shard

import (
	"sync"
	"time"

	"github.com/krisalay/expiry-cache/types"
)

/*
This file defines what a "Shard" is. A shard is a small, independent piece of the store.
Instead of having: One big map and one big lock
We split the store into many shards. Each shard:
- Holds some portion of the keys
- Has its own RWMutex

Readers of different shards never contend, and a sweep only blocks the shard it is currently visiting.
*/

type Shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*types.Entry[V]
}

func NewShard[K comparable, V any]() *Shard[K, V] {
	return &Shard[K, V]{items: make(map[K]*types.Entry[V])}
}

func (s *Shard[K, V]) get(key K) (*types.Entry[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ent, ok := s.items[key]

	return ent, ok
}

// put stores ent and reports whether the key was new.
func (s *Shard[K, V]) put(key K, ent *types.Entry[V]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.items[key]
	s.items[key] = ent

	return !existed
}

func (s *Shard[K, V]) delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return false
	}

	delete(s.items, key)

	return true
}

// deleteIf removes key only when cond holds for the entry currently stored.
// The check and the removal happen under the same lock.
func (s *Shard[K, V]) deleteIf(key K, cond func(*types.Entry[V]) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.items[key]
	if !ok || !cond(ent) {
		return false
	}

	delete(s.items, key)

	return true
}

// deleteExpired walks the whole shard and drops every entry expired at now.
func (s *Shard[K, V]) deleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for k, ent := range s.items {
		if ent == nil || ent.ExpireAt.Before(now) {
			delete(s.items, k)
			removed++
		}
	}

	return removed
}

func (s *Shard[K, V]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}
