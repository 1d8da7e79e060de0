package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/krisalay/expiry-cache/types"
)

// This file implements the background loop that removes expired entries.

/*
Config wires a Sweeper to the cache it serves.
Sweep and Delay are required; the rest defaults to no-ops and the real clock.
*/
type Config struct {
	// Name identifies the sweep policy in log lines.
	Name string

	// Sweep runs one pass and returns how many entries it removed.
	Sweep func(now time.Time) int

	// Delay is read after every pass to decide how long to sleep.
	Delay func() time.Duration

	Clock   clockwork.Clock
	Metrics types.Metrics
	Logger  zerolog.Logger
}

/*
Sweeper owns one goroutine that alternates between sweeping and sleeping:

	Sweeping --(pass done)--> Sleeping --(delay elapsed | Wake)--> Sweeping

The first pass runs as soon as the sweeper starts.
The loop only ends when its context is cancelled or Stop is called; a Wake
interrupts the sleep but never the loop.
*/
type Sweeper struct {
	cfg Config

	// wake is buffered so that Wake never blocks a Put.
	wake chan struct{}

	cancel context.CancelFunc

	// wg is used to wait for the worker to finish during shutdown.
	wg   sync.WaitGroup
	once sync.Once
}

// Start launches the worker. Cancelling ctx has the same effect as Stop.
func Start(ctx context.Context, cfg Config) *Sweeper {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Metrics == nil {
		cfg.Metrics = types.NoopMetrics{}
	}

	ctx, cancel := context.WithCancel(ctx)

	s := &Sweeper{
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		cancel: cancel,
	}

	s.wg.Add(1)

	go s.worker(ctx)

	return s
}

// Wake cuts the current sleep short so that a changed delay takes effect.
func (s *Sweeper) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
		// a wake-up is already pending
	}
}

/*
Stop shuts the sweeper down.
------------------
1. Cancel the context (the worker leaves its sleep)
2. Wait for the worker to return

A pass that is already running completes first. Stop is safe to call more than once.
*/
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func (s *Sweeper) worker(ctx context.Context) {
	defer s.wg.Done()

	log := s.cfg.Logger.With().Str("_policy", s.cfg.Name).Logger()
	log.Debug().Msg("Sweeper started")

	defer func() { log.Debug().Msg("Sweeper stopped") }()

	for {
		s.pass(log)

		delay := s.cfg.Delay()
		timer := s.cfg.Clock.NewTimer(delay)

		log.Trace().Dur("_next_sweep", delay).Msg("Sweeper sleeping")

		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case <-s.wake:
			timer.Stop()
		case <-timer.Chan():
		}
	}
}

// pass runs a single sweep. A panic inside it is logged and the loop carries on.
func (s *Sweeper) pass(log zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("_panic", r).Msg("Sweep aborted")
		}
	}()

	start := s.cfg.Clock.Now()
	removed := s.cfg.Sweep(start)
	took := s.cfg.Clock.Since(start)

	s.cfg.Metrics.Sweep(removed, took)

	log.Debug().
		Int("_removed", removed).
		Dur("_duration", took).
		Msg("Sweep completed")
}
