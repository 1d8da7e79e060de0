package eviction

import (
	"time"

	"github.com/krisalay/expiry-cache/shard"
	"github.com/krisalay/expiry-cache/types"
)

/*
This file defines how the cache decides which expired entries to remove
proactively, without waiting for somebody to read them.
*/

/*
Policy is the interface that all sweep strategies must follow.

The cache does NOT care how a policy finds due entries.
It only calls these methods.
*/
type Policy[K comparable, V any] interface {

	// OnPut is called after an entry has been written to the store.
	//
	// This lets the policy track the expiry of the new entry.
	// Linear scanning ignores it.
	OnPut(key K, ent *types.Entry[V])

	// Sweep is one pass of the background sweeper.
	//
	// It removes entries expired at now from the store
	// and returns how many it removed.
	Sweep(now time.Time, store shard.ShardStore[K, V]) int

	// Len returns how many records the policy is tracking.
	Len() int
}

// PolicyType is a simple identifier for supported sweep strategies.
type PolicyType string

const (
	// Basic walks the whole store on every sweep.
	// Every pass costs O(n), but Put does no extra work.
	// This works well when:
	// - TTLs are short
	// - Puts are frequent
	Basic PolicyType = "basic"

	// Queued keeps a min-heap of expiry instants and only looks at the due head.
	// Every pass costs O(k log n) for k expired entries, and Put pays a heap push.
	// This works well when:
	// - Reads outnumber writes
	// - TTLs are long
	Queued PolicyType = "queued"
)

// NewEvictionPolicy is a small factory function.
// Given a PolicyType, it creates the correct sweep policy.
func NewEvictionPolicy[K comparable, V any](t PolicyType) Policy[K, V] {
	switch t {
	case Basic:
		return newLinear[K, V]()
	case Queued:
		return newQueue[K, V]()
	default:
		panic("unknown eviction policy: " + string(t))
	}
}
