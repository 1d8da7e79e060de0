package engine

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/krisalay/expiry-cache/expiration"
	"github.com/krisalay/expiry-cache/types"
)

const (
	DefaultMinInterval = time.Millisecond
	DefaultMaxInterval = time.Minute
)

// ErrNoLoader is returned by Load when no loader is configured.
var ErrNoLoader = errors.New("no loader configured")

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.

It decides:
- What time it is
- When an entry is expired
- How long the sweeper sleeps
- How data is loaded on a read-through miss
- How events are logged and counted

It does NOT:
- Store data
- Handle sharding
- Handle locking
- Decide which expired entries a sweep looks at
*/
type CacheEngine[K comparable, V any] struct {

	// Clock is the time source for expiry instants and sweeper sleeps.
	// The real clock carries Go's monotonic reading, so wall-clock jumps do not move expiries.
	Clock clockwork.Clock

	// Interval is the running TTL average the sweeper sleeps on.
	Interval *expiration.Interval

	// MinInterval and MaxInterval clamp the sweeper sleep.
	MinInterval time.Duration
	MaxInterval time.Duration

	// Loader backs GetOrLoad. If nil, GetOrLoad fails with ErrNoLoader.
	Loader types.Loader[K, V]

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics

	Logger zerolog.Logger
}

/*
NewCacheEngine creates a CacheEngine with every optional collaborator defaulted,
so the rest of the code needs no nil checks.
*/
func NewCacheEngine[K comparable, V any]() *CacheEngine[K, V] {
	return &CacheEngine[K, V]{
		Clock:       clockwork.NewRealClock(),
		Interval:    &expiration.Interval{},
		MinInterval: DefaultMinInterval,
		MaxInterval: DefaultMaxInterval,
		Metrics:     types.NoopMetrics{},
		Logger:      zerolog.Nop(),
	}
}

// Now returns the current instant of the engine clock.
func (e *CacheEngine[K, V]) Now() time.Time {
	return e.Clock.Now()
}

// IsExpired reports whether ent is invisible at the current instant.
func (e *CacheEngine[K, V]) IsExpired(ent *types.Entry[V]) bool {
	return ent.ExpiredAt(e.Clock.Now())
}

/*
OnWrite is called for every accepted Put, before the entry is stored.
It builds the entry and folds ttl into the sweep interval, using the store size
before the insert.
*/
func (e *CacheEngine[K, V]) OnWrite(value V, ttl time.Duration, size int64) *types.Entry[V] {
	e.Interval.Observe(ttl, size)

	return &types.Entry[V]{Value: value, ExpireAt: e.Clock.Now().Add(ttl)}
}

// SweepDelay is how long the sweeper sleeps before its next pass.
func (e *CacheEngine[K, V]) SweepDelay() time.Duration {
	return e.Interval.Sleep(e.MinInterval, e.MaxInterval)
}

// Load is used by GetOrLoad when the cache does NOT have the data.
func (e *CacheEngine[K, V]) Load(ctx context.Context, key K) (V, error) {
	if e.Loader == nil {
		var zero V

		return zero, ErrNoLoader
	}

	return e.Loader.Load(ctx, key)
}
