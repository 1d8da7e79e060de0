package sweeper

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passCounter struct {
	passes atomic.Int32
	panics int32
}

func (p *passCounter) sweep(time.Time) int {
	n := p.passes.Add(1)
	if n <= p.panics {
		panic("sweep failed")
	}

	return int(n)
}

func (p *passCounter) reached(n int32) func() bool {
	return func() bool { return p.passes.Load() >= n }
}

// syncBuffer lets the worker log while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestSweeperRunsFirstPassImmediately(t *testing.T) {
	t.Parallel()

	pc := &passCounter{}

	s := Start(context.Background(), Config{
		Sweep: pc.sweep,
		Delay: func() time.Duration { return time.Hour },
		Clock: clockwork.NewFakeClock(),
	})
	defer s.Stop()

	assert.Eventually(t, pc.reached(1), time.Second, time.Millisecond)
}

func TestSweeperSleepsForDelay(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pc := &passCounter{}
	clock := clockwork.NewFakeClock()

	s := Start(ctx, Config{
		Sweep: pc.sweep,
		Delay: func() time.Duration { return 100 * time.Millisecond },
		Clock: clock,
	})
	defer s.Stop()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	require.Equal(t, int32(1), pc.passes.Load())

	clock.Advance(99 * time.Millisecond)
	assert.Equal(t, int32(1), pc.passes.Load())

	clock.Advance(time.Millisecond)
	assert.Eventually(t, pc.reached(2), time.Second, time.Millisecond)
}

func TestSweeperWakeInterruptsSleep(t *testing.T) {
	t.Parallel()

	pc := &passCounter{}

	s := Start(context.Background(), Config{
		Sweep: pc.sweep,
		Delay: func() time.Duration { return time.Hour },
		Clock: clockwork.NewFakeClock(),
	})
	defer s.Stop()

	require.Eventually(t, pc.reached(1), time.Second, time.Millisecond)

	s.Wake()
	s.Wake()

	assert.Eventually(t, pc.reached(2), time.Second, time.Millisecond)
}

func TestSweeperStop(t *testing.T) {
	t.Parallel()

	pc := &passCounter{}
	buf := &syncBuffer{}

	s := Start(context.Background(), Config{
		Name:   "test",
		Sweep:  pc.sweep,
		Delay:  func() time.Duration { return time.Millisecond },
		Logger: zerolog.New(buf).Level(zerolog.DebugLevel),
	})

	require.Eventually(t, pc.reached(3), time.Second, time.Millisecond)

	s.Stop()
	s.Stop()

	passes := pc.passes.Load()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, passes, pc.passes.Load())

	out := buf.String()
	assert.Contains(t, out, "Sweeper started")
	assert.Contains(t, out, "Sweeper stopped")
	assert.Contains(t, out, `"_policy":"test"`)
}

func TestSweeperStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	s := Start(ctx, Config{
		Sweep:  func(time.Time) int { return 0 },
		Delay:  func() time.Duration { return time.Hour },
		Logger: zerolog.New(buf).Level(zerolog.DebugLevel),
	})
	defer s.Stop()

	cancel()

	assert.Eventually(t, func() bool { return bytes.Contains([]byte(buf.String()), []byte("Sweeper stopped")) },
		time.Second, time.Millisecond)
}

func TestSweeperSurvivesPanickingPass(t *testing.T) {
	t.Parallel()

	pc := &passCounter{panics: 2}
	buf := &syncBuffer{}

	s := Start(context.Background(), Config{
		Sweep:  pc.sweep,
		Delay:  func() time.Duration { return time.Millisecond },
		Logger: zerolog.New(buf),
	})
	defer s.Stop()

	require.Eventually(t, pc.reached(4), time.Second, time.Millisecond)
	assert.Contains(t, buf.String(), "Sweep aborted")
}
