package types

import "time"

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
Implementations are called from caller goroutines and from the sweeper, so they must be safe for concurrent use.
*/
type Metrics interface {

	// Hit is called when Get returns a live value.
	Hit()

	// Miss is called when Get finds nothing or finds an expired entry.
	Miss()

	// Expire is called when a read removes an expired entry (lazy expiry).
	Expire()

	// Sweep is called after every sweep cycle with the number of entries it removed.
	Sweep(removed int, took time.Duration)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

If someone does not care about metrics,
we still want the cache to work without
nil checks on the hot path.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()                     {}
func (NoopMetrics) Miss()                    {}
func (NoopMetrics) Expire()                  {}
func (NoopMetrics) Sweep(int, time.Duration) {}
