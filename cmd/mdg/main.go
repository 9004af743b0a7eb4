package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/candle"
	"main/internal/feed"
	"main/internal/hub"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
)

// mdg drives the ticker hub with a synthetic random walk instead of a live
// stream, for offline development and demos.
func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	interval := flag.Duration("interval", 500*time.Millisecond, "Delay between ticks")
	period := flag.Duration("period", 15*time.Minute, "Candle bar interval")
	volatility := flag.Float64("volatility", 0.01, "Max per-step move fraction")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	metrics := obs.NewMetrics()
	tickerHub := hub.New(cfg.BufferSize, metrics)

	walk, err := feed.NewRandomWalk(tickerHub, cfg.Symbols, *interval, *volatility, rng)
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}
	go walk.Run(ctx)

	sub := tickerHub.Subscribe().Distinct()
	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	barPeriod := candle.Period(*period)
	series := make(map[model.Symbol][]candle.Candle, len(cfg.Symbols))

	for {
		row, ok := sub.Next()
		if !ok {
			break
		}
		logs.Infof("%s %s (%s%%)",
			row.Symbol.Display(), row.LastPrice.StringFixed(2), row.ChangePercent.StringFixed(2))

		bars, seen := series[row.Symbol]
		if !seen {
			// The walk goroutine owns rng; backfill takes its own source.
			series[row.Symbol] = candle.GenInitial(row.LastPrice, barPeriod, candle.DefaultBars, row.EventTime, nil)
			continue
		}
		prev := bars[len(bars)-1]
		bars = candle.UpdateByTick(bars, barPeriod, row.EventTime, row.LastPrice, candle.DefaultBars)
		series[row.Symbol] = bars
		if !bars[len(bars)-1].Time.Equal(prev.Time) {
			logs.Infof("%s bar closed O=%s H=%s L=%s C=%s",
				row.Symbol.Display(), prev.Open.StringFixed(2), prev.High.StringFixed(2),
				prev.Low.StringFixed(2), prev.Close.StringFixed(2))
		}
	}

	tickerHub.Close()
	logs.Info("mdg stopped")
}
