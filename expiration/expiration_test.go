package expiration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalObserve(t *testing.T) {
	t.Parallel()

	var iv Interval

	iv.Observe(100*time.Millisecond, 0)
	assert.Equal(t, int64(100), iv.Millis())

	iv.Observe(400*time.Millisecond, 1)
	assert.Equal(t, int64(250), iv.Millis())

	iv.Observe(10*time.Millisecond, 4)
	assert.Equal(t, int64(202), iv.Millis())

	iv.Observe(time.Second, -1)
	assert.Equal(t, int64(1000), iv.Millis())
}

func TestIntervalObserveLongTTLOnLargeStore(t *testing.T) {
	t.Parallel()

	longTTL := 200 * 365 * 24 * time.Hour

	var iv Interval

	iv.Observe(longTTL, 0)
	iv.Observe(longTTL, 2_000_000)

	assert.Equal(t, longTTL.Milliseconds(), iv.Millis())
	assert.Equal(t, time.Minute, iv.Sleep(time.Millisecond, time.Minute))

	iv.Observe(0, 1<<62)
	assert.Positive(t, iv.Millis())
}

func TestIntervalSleep(t *testing.T) {
	t.Parallel()

	lower, upper := 5*time.Millisecond, time.Second

	for _, tc := range []struct {
		uc      string
		observe []time.Duration
		expect  time.Duration
	}{
		{uc: "nothing observed", expect: upper},
		{uc: "sub millisecond ttl", observe: []time.Duration{time.Microsecond}, expect: lower},
		{uc: "within bounds", observe: []time.Duration{200 * time.Millisecond}, expect: 200 * time.Millisecond},
		{uc: "above upper", observe: []time.Duration{time.Hour}, expect: upper},
	} {
		t.Run("case="+tc.uc, func(t *testing.T) {
			t.Parallel()

			var iv Interval
			for _, d := range tc.observe {
				iv.Observe(d, 0)
			}

			assert.Equal(t, tc.expect, iv.Sleep(lower, upper))
		})
	}
}
