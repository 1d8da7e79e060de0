package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/krisalay/expiry-cache/types"
)

const defaultShards = 16

type options[K comparable, V any] struct {
	ctx         context.Context //nolint:containedctx
	clock       clockwork.Clock
	logger      zerolog.Logger
	metrics     types.Metrics
	loader      types.Loader[K, V]
	shards      int
	minInterval time.Duration
	maxInterval time.Duration
}

// Option sets a parameter of an ExpiryCache at construction.
type Option[K comparable, V any] func(*options[K, V])

// WithContext ties the sweeper to ctx: cancelling it stops the sweeper
// exactly like calling the Stop handle.
func WithContext[K comparable, V any](ctx context.Context) Option[K, V] {
	return func(o *options[K, V]) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithClock replaces the real monotonic clock, mostly for tests.
func WithClock[K comparable, V any](clock clockwork.Clock) Option[K, V] {
	return func(o *options[K, V]) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func WithLogger[K comparable, V any](logger zerolog.Logger) Option[K, V] {
	return func(o *options[K, V]) {
		o.logger = logger
	}
}

func WithMetrics[K comparable, V any](metrics types.Metrics) Option[K, V] {
	return func(o *options[K, V]) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithLoader enables GetOrLoad.
func WithLoader[K comparable, V any](loader types.Loader[K, V]) Option[K, V] {
	return func(o *options[K, V]) {
		o.loader = loader
	}
}

// WithShards sets the number of store shards. It is rounded up to a power of two.
func WithShards[K comparable, V any](n int) Option[K, V] {
	return func(o *options[K, V]) {
		if n > 0 {
			o.shards = n
		}
	}
}

// WithMinInterval bounds how often the sweeper may run.
func WithMinInterval[K comparable, V any](d time.Duration) Option[K, V] {
	return func(o *options[K, V]) {
		if d > 0 {
			o.minInterval = d
		}
	}
}

// WithMaxInterval bounds how long the sweeper may sleep. It is also the idle
// sleep used before the first Put.
func WithMaxInterval[K comparable, V any](d time.Duration) Option[K, V] {
	return func(o *options[K, V]) {
		if d > 0 {
			o.maxInterval = d
		}
	}
}
