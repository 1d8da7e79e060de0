package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cache "github.com/krisalay/expiry-cache"
	"github.com/krisalay/expiry-cache/eviction"
	"github.com/krisalay/expiry-cache/metrics"
	"github.com/krisalay/expiry-cache/types"
)

var errUnknownPolicy = errors.New("unknown policy")

func newDemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "demo",
		Short:   "Walks through puts, lazy expiry, background sweeps and read-through loading",
		Example: "expirycache demo --policy queued",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, _ := cmd.Flags().GetString("policy")

			pt := eviction.PolicyType(policy)
			if pt != eviction.Basic && pt != eviction.Queued {
				return fmt.Errorf("%w: %s", errUnknownPolicy, policy)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runDemo(ctx, newLogger(cmd), pt)
		},
	}

	cmd.Flags().String("policy", string(eviction.Basic), "sweep policy: basic or queued")

	return cmd
}

//nolint:funlen
func runDemo(ctx context.Context, logger zerolog.Logger, policy eviction.PolicyType) error {
	reg := prometheus.NewRegistry()

	collector := metrics.New(
		metrics.WithRegisterer(reg),
		metrics.WithLabel("policy", string(policy)),
	)

	var loads atomic.Int32

	loader := types.LoaderFunc[string, string](func(ctx context.Context, key string) (string, error) {
		loads.Add(1)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}

		return "loaded-" + key, nil
	})

	c, stopCache := cache.New(policy,
		cache.WithContext[string, string](ctx),
		cache.WithLogger[string, string](logger),
		cache.WithMetrics[string, string](collector),
		cache.WithLoader[string, string](loader),
		cache.WithShards[string, string](4),
	)
	defer stopCache()

	logger.Info().Str("_policy", string(c.Policy())).Msg("Cache started")

	// 1) put and read back
	c.Put("a", "alpha", 50, types.Milliseconds)

	v, ok := c.Get("a")
	logger.Info().Str("_key", "a").Str("_value", v).Bool("_found", ok).Msg("GET right after PUT")

	// 2) lazy expiry
	if err := sleep(ctx, 60*time.Millisecond); err != nil {
		return err
	}

	_, ok = c.Get("a")
	logger.Info().Str("_key", "a").Bool("_found", ok).Msg("GET after TTL")

	// 3) a refresh overrides the earlier expiry
	c.Put("b", "first", 10, types.Milliseconds)
	c.Put("b", "second", 1, types.Seconds)

	if err := sleep(ctx, 15*time.Millisecond); err != nil {
		return err
	}

	v, ok = c.Get("b")
	logger.Info().Str("_key", "b").Str("_value", v).Bool("_found", ok).Msg("GET after refresh")

	// 4) rejected puts
	c.Put("c", "never", 0, types.Seconds)
	c.Put("d", "never", 5, types.Unspecified)
	logger.Info().Int("_entries", c.Len()).Msg("Entries after rejected puts")

	// 5) the sweeper removes entries nobody reads
	for i := range 20 {
		c.Put(fmt.Sprintf("k%d", i), "short", 30, types.Milliseconds)
	}

	logger.Info().Int("_entries", c.Len()).Int64("_interval_ms", c.SweepInterval()).Msg("Entries before sweep")

	if err := sleep(ctx, 200*time.Millisecond); err != nil {
		return err
	}

	logger.Info().Int("_entries", c.Len()).Int("_pending", c.Pending()).Msg("Entries after sweep")

	// 6) read-through with one load for many callers
	var wg sync.WaitGroup

	for i := range 5 {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			val, err := c.GetOrLoad(ctx, "e", time.Second)
			if err != nil {
				logger.Error().Err(err).Int("_goroutine", id).Msg("GetOrLoad failed")

				return
			}

			logger.Info().Int("_goroutine", id).Str("_value", val).Msg("GetOrLoad")
		}(i)
	}

	wg.Wait()
	logger.Info().Int32("_loads", loads.Load()).Msg("Loader calls")

	// 7) remove
	c.Remove("e")
	_, ok = c.Get("e")
	logger.Info().Str("_key", "e").Bool("_found", ok).Msg("GET after REMOVE")

	return printMetrics(logger, reg)
}

func printMetrics(logger zerolog.Logger, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			ev := logger.Info().Str("_metric", mf.GetName())

			for _, lp := range m.GetLabel() {
				ev = ev.Str("_"+lp.GetName(), lp.GetValue())
			}

			switch {
			case m.GetCounter() != nil:
				ev = ev.Float64("_value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				ev = ev.Uint64("_count", m.GetHistogram().GetSampleCount())
			}

			ev.Msg("Metric")
		}
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
