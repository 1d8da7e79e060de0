package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/expiry-cache"
	api "github.com/krisalay/expiry-cache/api"
	"github.com/krisalay/expiry-cache/eviction"
)

type benchConfig struct {
	keys       int
	goroutines int
	ops        int
	ttl        time.Duration
	writeRatio int
}

// target is the slice of behavior the benchmark drives.
type target interface {
	Set(key string, value int, ttl time.Duration)
	Get(key string) bool
	Close()
}

type expiryTarget struct {
	c api.Cache[string, int]
}

func (t expiryTarget) Set(key string, value int, ttl time.Duration) { t.c.PutWithTTL(key, value, ttl) }
func (t expiryTarget) Close()                                        { t.c.Close() }

func (t expiryTarget) Get(key string) bool {
	_, ok := t.c.Get(key)

	return ok
}

// ttlcacheTarget is the baseline: a widely used TTL cache with its own expiry queue.
type ttlcacheTarget struct {
	c *ttlcache.Cache[string, int]
}

func (t ttlcacheTarget) Set(key string, value int, ttl time.Duration) { t.c.Set(key, value, ttl) }
func (t ttlcacheTarget) Get(key string) bool                           { return t.c.Get(key) != nil }
func (t ttlcacheTarget) Close()                                        { t.c.Stop() }

func newBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bench",
		Short:   "Compares the basic and queued engines against ttlcache under concurrent load",
		Example: "expirycache bench --goroutines 200 --ops 5000 --ttl 50ms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg benchConfig

			cfg.keys, _ = cmd.Flags().GetInt("keys")
			cfg.goroutines, _ = cmd.Flags().GetInt("goroutines")
			cfg.ops, _ = cmd.Flags().GetInt("ops")
			cfg.ttl, _ = cmd.Flags().GetDuration("ttl")
			cfg.writeRatio, _ = cmd.Flags().GetInt("write-ratio")

			return runBench(cmd.Context(), newLogger(cmd), cfg)
		},
	}

	cmd.Flags().Int("keys", 100000, "number of distinct keys")
	cmd.Flags().Int("goroutines", 200, "number of concurrent workers")
	cmd.Flags().Int("ops", 5000, "operations per worker")
	cmd.Flags().Duration("ttl", time.Second, "ttl of every put")
	cmd.Flags().Int("write-ratio", 10, "percentage of operations that are puts")

	return cmd
}

func runBench(ctx context.Context, logger zerolog.Logger, cfg benchConfig) error {
	logger.Info().
		Int("_keys", cfg.keys).
		Int("_goroutines", cfg.goroutines).
		Int("_ops", cfg.ops).
		Dur("_ttl", cfg.ttl).
		Int("_write_ratio", cfg.writeRatio).
		Msg("Benchmark configured")

	targets := []struct {
		name string
		make func() target
	}{
		{string(eviction.Basic), func() target {
			c, _ := cache.New(eviction.Basic, cache.WithLogger[string, int](logger))

			return expiryTarget{c: c}
		}},
		{string(eviction.Queued), func() target {
			c, _ := cache.New(eviction.Queued, cache.WithLogger[string, int](logger))

			return expiryTarget{c: c}
		}},
		{"ttlcache", func() target {
			c := ttlcache.New[string, int](ttlcache.WithDisableTouchOnHit[string, int]())
			go c.Start()

			return ttlcacheTarget{c: c}
		}},
	}

	for _, tgt := range targets {
		took, hits, err := drive(ctx, tgt.make(), cfg)
		if err != nil {
			return fmt.Errorf("%s: %w", tgt.name, err)
		}

		total := cfg.goroutines * cfg.ops

		logger.Info().
			Str("_engine", tgt.name).
			Int("_operations", total).
			Dur("_duration", took).
			Float64("_ops_per_sec", float64(total)/took.Seconds()).
			Int64("_hits", hits).
			Msg("Benchmark finished")
	}

	return nil
}

func drive(ctx context.Context, t target, cfg benchConfig) (time.Duration, int64, error) {
	defer t.Close()

	for i := range cfg.keys {
		t.Set(fmt.Sprintf("key-%d", i), i, cfg.ttl)
	}

	hits := make([]int64, cfg.goroutines)
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()

	for w := range cfg.goroutines {
		g.Go(func() error {
			for j := range cfg.ops {
				if j%100 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}

				key := fmt.Sprintf("key-%d", (w*cfg.ops+j)%cfg.keys)

				if j%100 < cfg.writeRatio {
					t.Set(key, j, cfg.ttl)
				} else if t.Get(key) {
					hits[w]++
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	took := time.Since(start)

	var total int64
	for _, h := range hits {
		total += h
	}

	return took, total, nil
}
