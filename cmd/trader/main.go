package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/archive"
	"main/internal/book"
	"main/internal/hub"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/stream"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	statsInterval := flag.Duration("stats", 30*time.Second, "Metrics log interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if cfg.PyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trader",
			ServerAddress:   cfg.PyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	metrics := obs.NewMetrics()
	tickerHub := hub.New(cfg.BufferSize, metrics)
	orderLedger := ledger.New(metrics)

	policy := stream.NewPolicy(cfg.ReconnectBase, cfg.ReconnectMax, cfg.ReconnectFactor)
	connection, err := stream.New(stream.Config{
		Endpoint: cfg.Endpoint,
		Symbols:  cfg.Symbols,
		Kind:     cfg.Kind,
		Policy:   policy,
		Metrics:  metrics,
	}, tickerHub)
	if err != nil {
		log.Fatalf("stream init failed: %v", err)
	}
	connection.Start(ctx)

	for _, spec := range cfg.Orders {
		if _, err := orderLedger.Place(spec.Symbol, spec.Price, spec.Qty, spec.Side, spec.Type); err != nil {
			log.Fatalf("seed order failed: %v", err)
		}
	}

	if cfg.ArchiveDSN != "" {
		client, err := conn.New(cfg.ArchiveDSN, nil)
		if err != nil {
			log.Fatalf("archive connect failed: %v", err)
		}
		defer func() {
			_ = client.Close()
		}()
		archiver, err := archive.New(client)
		if err != nil {
			log.Fatalf("archive init failed: %v", err)
		}
		snapshots, stopWatch := orderLedger.Watch(8)
		defer stopWatch()
		go archiver.Run(ctx, snapshots)
	}

	simulator := book.NewSimulator(cfg.Levels, rand.New(rand.NewSource(time.Now().UnixNano())))
	driver := newMatchDriver(tickerHub, orderLedger, simulator)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		driver.run(ctx)
	}()
	go func() {
		defer wg.Done()
		driver.jitterLoop(ctx, cfg.JitterInterval)
	}()

	statsTicker := time.NewTicker(*statsInterval)
	defer statsTicker.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-statsTicker.C:
			snap := metrics.Snapshot()
			logs.Infof("frames=%d ticks=%d malformed=%d reconnects=%d drops=%d matched=%d",
				snap.FramesReceived, snap.TicksPublished, snap.MalformedDropped,
				snap.ReconnectScheduled, snap.SubscriberDrops, snap.OrdersMatched)
		}
	}

	connection.Stop()
	tickerHub.Close()
	wg.Wait()
	logs.Info("trader stopped")
}

// matchDriver regenerates ladders on price updates and feeds the resulting
// BBO into the ledger. One ladder per symbol; jitterLoop refreshes idle
// ladders between ticks.
type matchDriver struct {
	hub       *hub.Hub
	ledger    *ledger.Ledger
	simulator *book.Simulator

	mu      sync.Mutex
	ladders map[model.Symbol]book.Ladder
}

func newMatchDriver(h *hub.Hub, l *ledger.Ledger, s *book.Simulator) *matchDriver {
	return &matchDriver{
		hub:       h,
		ledger:    l,
		simulator: s,
		ladders:   make(map[model.Symbol]book.Ladder),
	}
}

func (d *matchDriver) run(ctx context.Context) {
	sub := d.hub.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		sub.Close()
		close(done)
	}()

	for {
		row, ok := sub.Next()
		if !ok {
			<-done
			return
		}
		d.mu.Lock()
		ladder := d.simulator.Regenerate(row.LastPrice)
		d.ladders[row.Symbol] = ladder
		d.mu.Unlock()

		if bid, ask, ok := ladder.BestBidAsk(); ok {
			d.ledger.MatchWith(bid, ask)
		}
	}
}

func (d *matchDriver) jitterLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			for symbol, ladder := range d.ladders {
				d.ladders[symbol] = d.simulator.Jitter(ladder)
			}
			d.mu.Unlock()
		}
	}
}
