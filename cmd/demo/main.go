// demo feeds synthetic latency measurements through a WindowedSample
// from several concurrent producers and periodically reports the
// closed window's percentiles.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtxerr/streamstats"
	"github.com/xtxerr/streamstats/config"
	"github.com/xtxerr/streamstats/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "config file path (defaults apply when empty)")
	producers := flag.Int("producers", 4, "number of concurrent producers")
	duration := flag.Duration("duration", 2*time.Minute, "how long to run")
	report := flag.Duration("report", 10*time.Second, "reporting interval")
	jsonLog := flag.Bool("json", false, "JSON log output")
	flag.Parse()

	logging.Init(slog.LevelInfo, *jsonLog)
	log := logging.Component("demo")

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Error("load config", "error", err)
			os.Exit(1)
		}
	}

	sample, err := cfg.NewWindowedSample()
	if err != nil {
		log.Error("build windowed sample", "error", err)
		os.Exit(1)
	}

	log.Info("starting",
		"window", cfg.Window(),
		"targets", len(cfg.Targets),
		"producers", *producers,
		"duration", *duration,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < *producers; i++ {
		seed := time.Now().UnixNano() + int64(i)
		g.Go(func() error {
			return produce(ctx, sample, rand.New(rand.NewSource(seed)))
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(*report)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				// Recorded in microseconds, reported in milliseconds.
				snap, err := sample.Snapshot(1000)
				if err != nil {
					return err
				}
				log.Info("window",
					"size", snap.Size(),
					"p50_ms", snap.Median(),
					"p95_ms", snap.P95(),
					"p99_ms", snap.P99(),
					"max_ms", snap.Max(),
				)
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
	log.Info("done")
}

// produce feeds log-normally distributed synthetic latencies, in
// microseconds, until the context is cancelled.
func produce(ctx context.Context, sample *streamstats.WindowedSample, rng *rand.Rand) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v := int64(1000 * math.Exp(0.5*rng.NormFloat64()))
			if err := sample.Update(v); err != nil {
				return err
			}
		}
	}
}
