// This file implements the priority queue sweep.

package eviction

import (
	"container/heap"
	"sync"
	"time"

	"github.com/krisalay/expiry-cache/shard"
	"github.com/krisalay/expiry-cache/types"
)

// Record says that key is due for removal at EvictAt.
//
// Records are advisory. A key that is put twice has two records, and the
// older one no longer matches the stored entry when it is popped.
type Record[K comparable] struct {
	Key     K
	EvictAt time.Time
}

// records is a min-heap on EvictAt.
type records[K comparable] []Record[K]

func (r records[K]) Len() int           { return len(r) }
func (r records[K]) Less(i, j int) bool { return r[i].EvictAt.Before(r[j].EvictAt) }
func (r records[K]) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }

func (r *records[K]) Push(x any) { *r = append(*r, x.(Record[K])) } //nolint:forcetypeassert

func (r *records[K]) Pop() any {
	old := *r
	n := len(old)
	rec := old[n-1]
	*r = old[:n-1]

	return rec
}

type queue[K comparable, V any] struct {
	// mu guards every structural change of the heap.
	// The store has its own locks; this one is never taken by Get.
	mu      sync.Mutex
	pending records[K]
}

func newQueue[K comparable, V any]() *queue[K, V] {
	return &queue[K, V]{pending: make(records[K], 0, 16)}
}

// OnPut records the expiry of the freshly stored entry.
func (q *queue[K, V]) OnPut(key K, ent *types.Entry[V]) {
	q.mu.Lock()
	defer q.mu.Unlock()

	heap.Push(&q.pending, Record[K]{Key: key, EvictAt: ent.ExpireAt})
}

/*
Sweep pops due records until the head is not due yet.

For every popped record the key is removed only if the entry currently stored
is itself expired. If the key was refreshed by a later Put, or already removed
by a read, the pop is a no-op.
*/
func (q *queue[K, V]) Sweep(now time.Time, store shard.ShardStore[K, V]) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	stale := func(ent *types.Entry[V]) bool { return ent.ExpireAt.Before(now) }

	for q.pending.Len() > 0 {
		if !q.pending[0].EvictAt.Before(now) {
			break
		}

		rec := heap.Pop(&q.pending).(Record[K]) //nolint:forcetypeassert
		if store.DeleteIf(rec.Key, stale) {
			removed++
		}
	}

	return removed
}

func (q *queue[K, V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pending.Len()
}
