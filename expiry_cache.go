package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	api "github.com/krisalay/expiry-cache/api"
	"github.com/krisalay/expiry-cache/engine"
	"github.com/krisalay/expiry-cache/eviction"
	"github.com/krisalay/expiry-cache/shard"
	"github.com/krisalay/expiry-cache/sweeper"
	"github.com/krisalay/expiry-cache/types"
)

var _ api.Cache[string, any] = (*ExpiryCache[string, any])(nil)

// ErrNoLoader is returned by GetOrLoad on a cache built without WithLoader.
var ErrNoLoader = engine.ErrNoLoader

// Stop shuts down the sweeper of the cache it was returned with.
// It blocks until the sweeper goroutine has returned and is safe to call more than once.
type Stop func()

/*
ExpiryCache is the main cache implementation.
This struct is the orchestrator that connects:
- the sharded store
- the sweep policy
- the engine (clock, interval, loader, metrics, logging)
- the background sweeper
*/
type ExpiryCache[K comparable, V any] struct {
	// store holds key → entry. Each shard has its own lock.
	store shard.ShardStore[K, V]

	// policy decides which entries a sweep inspects. The queued policy has
	// its own mutex, separate from the store locks.
	policy     eviction.Policy[K, V]
	policyType eviction.PolicyType

	engine  *engine.CacheEngine[K, V]
	sweeper *sweeper.Sweeper

	// sf collapses concurrent GetOrLoad misses on the same key.
	sf singleflight.Group
}

/*
New creates a cache using the given sweep policy and starts its sweeper.

The returned Stop handle ends the sweeper; Close does the same. Which policy
fits depends on the workload:
  - eviction.Basic for frequent writes with short TTLs
  - eviction.Queued for read-heavy workloads or long TTLs
*/
func New[K comparable, V any](policy eviction.PolicyType, opts ...Option[K, V]) (*ExpiryCache[K, V], Stop) {
	o := options[K, V]{
		ctx:         context.Background(),
		clock:       clockwork.NewRealClock(),
		logger:      zerolog.Nop(),
		metrics:     types.NoopMetrics{},
		shards:      defaultShards,
		minInterval: engine.DefaultMinInterval,
		maxInterval: engine.DefaultMaxInterval,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.maxInterval < o.minInterval {
		o.maxInterval = o.minInterval
	}

	eng := engine.NewCacheEngine[K, V]()
	eng.Clock = o.clock
	eng.Logger = o.logger
	eng.Metrics = o.metrics
	eng.Loader = o.loader
	eng.MinInterval = o.minInterval
	eng.MaxInterval = o.maxInterval

	c := &ExpiryCache[K, V]{
		store:      shard.NewShardedStore[K, V](o.shards),
		policy:     eviction.NewEvictionPolicy[K, V](policy),
		policyType: policy,
		engine:     eng,
	}

	c.sweeper = sweeper.Start(o.ctx, sweeper.Config{
		Name:    string(policy),
		Sweep:   c.sweep,
		Delay:   eng.SweepDelay,
		Clock:   eng.Clock,
		Metrics: eng.Metrics,
		Logger:  eng.Logger,
	})

	return c, c.Close
}

// NewBasic creates a cache with the linear scan sweeper.
func NewBasic[K comparable, V any](opts ...Option[K, V]) (*ExpiryCache[K, V], Stop) {
	return New(eviction.Basic, opts...)
}

// NewQueued creates a cache with the priority queue sweeper.
func NewQueued[K comparable, V any](opts ...Option[K, V]) (*ExpiryCache[K, V], Stop) {
	return New(eviction.Queued, opts...)
}

/*
Put stores value under key for ttl units of unit.

A ttl that is not positive, or an unspecified or unknown unit, makes the call
a silent no-op. Callers can use that as a cheap "don't cache" sentinel.
*/
func (c *ExpiryCache[K, V]) Put(key K, value V, ttl int, unit types.TimeUnit) {
	d, ok := unit.Duration(ttl)
	if !ok {
		return
	}

	c.put(key, value, d)
}

// PutWithTTL is Put with a time.Duration. A ttl that is not positive is a no-op.
func (c *ExpiryCache[K, V]) PutWithTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.put(key, value, ttl)
}

func (c *ExpiryCache[K, V]) put(key K, value V, ttl time.Duration) {
	size := c.store.Size()

	ent := c.engine.OnWrite(value, ttl, size)

	c.store.Put(key, ent)
	c.policy.OnPut(key, ent)

	// The sweeper idles while the cache is empty. Let it pick up the new interval.
	if size == 0 {
		c.sweeper.Wake()
	}
}

/*
Get retrieves the value stored under key.

An expired entry is removed on the spot and reported as a miss, so a caller
cannot tell "never stored" from "expired". The removal only happens if the
key still maps to that same stale entry; a value refreshed by a concurrent Put
is left alone.
*/
func (c *ExpiryCache[K, V]) Get(key K) (V, bool) {
	var zero V

	ent, ok := c.store.Get(key)
	if !ok {
		c.engine.Metrics.Miss()

		return zero, false
	}

	if c.engine.IsExpired(ent) {
		if c.store.CompareAndDelete(key, ent) {
			c.engine.Metrics.Expire()
		}

		c.engine.Metrics.Miss()

		return zero, false
	}

	c.engine.Metrics.Hit()

	return ent.Value, true
}

/*
GetOrLoad returns the cached value for key, or loads it with the configured
loader and stores it for ttl.

If many goroutines miss the same key at once, only ONE of them calls the loader.
A loader error is returned and nothing is stored.
*/
func (c *ExpiryCache[K, V]) GetOrLoad(ctx context.Context, key K, ttl time.Duration) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.sf.Do(flightKey(key), func() (any, error) {
		// a load that finished just before this one started already stored the value
		if v, ok := c.peek(key); ok {
			return v, nil
		}

		v, err := c.engine.Load(ctx, key)
		if err != nil {
			return v, err
		}

		c.PutWithTTL(key, v, ttl)

		return v, nil
	})
	if err != nil {
		var zero V

		return zero, fmt.Errorf("loading %v: %w", key, err)
	}

	v, _ := res.(V)

	return v, nil
}

// flightKey names key for singleflight. The dynamic type is part of the name,
// so interface keys such as int(1) and int64(1) never share a load.
func flightKey[K comparable](key K) string {
	return fmt.Sprintf("%T/%#v", key, key)
}

// Remove deletes key. Removing an absent key is a no-op.
func (c *ExpiryCache[K, V]) Remove(key K) {
	c.store.Delete(key)
}

/*
TTL returns the remaining lifetime of key.
It returns false if the key is absent or already expired. Unlike Get it never removes anything.
*/
func (c *ExpiryCache[K, V]) TTL(key K) (time.Duration, bool) {
	ent, ok := c.store.Get(key)
	if !ok {
		return 0, false
	}

	now := c.engine.Now()
	if ent.ExpiredAt(now) {
		return 0, false
	}

	return ent.ExpireAt.Sub(now), true
}

// Len returns the number of stored entries, including expired ones the sweeper
// has not reached yet.
func (c *ExpiryCache[K, V]) Len() int {
	return int(c.store.Size())
}

// Pending returns the number of eviction records the policy tracks.
// It is always zero for eviction.Basic.
func (c *ExpiryCache[K, V]) Pending() int {
	return c.policy.Len()
}

// Policy returns the sweep policy the cache was built with.
func (c *ExpiryCache[K, V]) Policy() eviction.PolicyType {
	return c.policyType
}

// SweepInterval returns the current running TTL average in milliseconds.
func (c *ExpiryCache[K, V]) SweepInterval() int64 {
	return c.engine.Interval.Millis()
}

// DeleteExpired runs one sweep pass on the calling goroutine and returns how
// many entries it removed.
func (c *ExpiryCache[K, V]) DeleteExpired() int {
	return c.sweep(c.engine.Now())
}

// Close stops the sweeper. Stored entries stay readable; they just are no
// longer removed in the background.
func (c *ExpiryCache[K, V]) Close() {
	c.sweeper.Stop()
}

// peek is Get without metrics and without removal.
func (c *ExpiryCache[K, V]) peek(key K) (V, bool) {
	ent, ok := c.store.Get(key)
	if !ok || c.engine.IsExpired(ent) {
		var zero V

		return zero, false
	}

	return ent.Value, true
}

func (c *ExpiryCache[K, V]) sweep(now time.Time) int {
	return c.policy.Sweep(now, c.store)
}
