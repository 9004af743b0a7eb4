package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/sys"

	"main/internal/model"
	"main/internal/stream"
)

var ErrNoSymbols = errors.New("feed: empty symbol set")

// defaultBasePrices seed the walk for well-known pairs; anything else starts
// at 100.
var defaultBasePrices = map[model.Symbol]float64{
	"BTCUSDT": 65000,
	"ETHUSDT": 3500,
	"BNBUSDT": 550,
	"SOLUSDT": 160,
	"SUIUSDT": 1.2,
	"ARBUSDT": 0.46,
}

// RandomWalk publishes synthetic ticks into the same sink a live connection
// feeds, so the rest of the core cannot tell it apart from the real stream.
// Used by cmd/mdg and as a test double.
type RandomWalk struct {
	sink       stream.Sink
	symbols    []model.Symbol
	prices     map[model.Symbol]float64
	interval   time.Duration
	volatility float64
	rng        *rand.Rand
}

// NewRandomWalk builds a generator over the given symbols. volatility is the
// max single-step move as a fraction of price (default 1%).
func NewRandomWalk(sink stream.Sink, symbols []model.Symbol, interval time.Duration, volatility float64, rng *rand.Rand) (*RandomWalk, error) {
	if sink == nil {
		return nil, stream.ErrNilSink
	}
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if volatility <= 0 {
		volatility = 0.01
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	prices := make(map[model.Symbol]float64, len(symbols))
	for _, symbol := range symbols {
		base, ok := defaultBasePrices[symbol]
		if !ok {
			base = 100
		}
		prices[symbol] = base
	}

	return &RandomWalk{
		sink:       sink,
		symbols:    symbols,
		prices:     prices,
		interval:   interval,
		volatility: volatility,
		rng:        rng,
	}, nil
}

// Step advances every symbol once and publishes the resulting ticks.
func (g *RandomWalk) Step(now time.Time) {
	for _, symbol := range g.symbols {
		price := g.prices[symbol]
		price *= 1 + g.volatility*(g.rng.Float64()*2-1)
		if price <= 0 {
			price = g.prices[symbol]
		}
		g.prices[symbol] = price
		g.sink.Publish(model.TickEvent{
			Symbol:    symbol,
			Price:     decimal.NewFromFloat(price),
			EventTime: now,
		})
	}
}

// Run steps on the interval until the context is done or the process shuts down.
func (g *RandomWalk) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			g.Step(now)
		}
	}
}
