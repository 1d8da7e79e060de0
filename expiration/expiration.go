// This file defines how often expired entries are swept.

package expiration

import (
	"math/bits"
	"sync/atomic"
	"time"
)

/*
Interval is the running average of the TTLs passed to Put, in milliseconds.
The sweeper sleeps for roughly this long between two passes.

Every Put folds its TTL in with

	next = (current*size + ttlMillis) / (size + 1)

where size is the number of stored entries before the insert.

Updates are a plain load followed by a plain store. Two concurrent Puts can
lose one of the updates. That only shifts sweep latency; expiry correctness
is guaranteed by the read path, so the hot Put path takes no lock here.
*/
type Interval struct {
	millis atomic.Int64
	seen   atomic.Bool
}

// Observe folds ttl into the average, given the store size before the insert.
func (i *Interval) Observe(ttl time.Duration, size int64) {
	if size < 0 {
		size = 0
	}

	ms := ttl.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	i.millis.Store(average(i.millis.Load(), ms, size))
	i.seen.Store(true)
}

// average computes (cur*size + ms) / (size + 1) in 128 bits, so long TTLs on a
// large store cannot overflow. The result never exceeds max(cur, ms).
func average(cur, ms, size int64) int64 {
	hi, lo := bits.Mul64(uint64(cur), uint64(size))

	var carry uint64
	lo, carry = bits.Add64(lo, uint64(ms), 0)
	hi += carry

	q, _ := bits.Div64(hi, lo, uint64(size)+1)

	return int64(q)
}

// Millis returns the current average.
func (i *Interval) Millis() int64 {
	return i.millis.Load()
}

// Sleep returns how long the sweeper should wait before the next pass.
// Until the first Observe the sweeper idles for upper.
func (i *Interval) Sleep(lower, upper time.Duration) time.Duration {
	if !i.seen.Load() {
		return upper
	}

	d := time.Duration(i.millis.Load()) * time.Millisecond

	switch {
	case d < lower:
		return lower
	case d > upper:
		return upper
	default:
		return d
	}
}
