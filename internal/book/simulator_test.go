package book

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertLadderShape(t *testing.T, ladder Ladder) {
	t.Helper()
	require.Equal(t, len(ladder.Bids), len(ladder.Asks))

	for i, bid := range ladder.Bids {
		assert.True(t, bid.Price.LessThan(ladder.Mid), "bid %d above mid", i)
		assert.True(t, ladder.Asks[i].Price.GreaterThan(ladder.Mid), "ask %d below mid", i)
		if i > 0 {
			assert.True(t, bid.Price.LessThan(ladder.Bids[i-1].Price), "bids not descending at %d", i)
			assert.True(t, ladder.Asks[i].Price.GreaterThan(ladder.Asks[i-1].Price), "asks not ascending at %d", i)
		}
	}
}

func TestRegenerateLadderShape(t *testing.T) {
	sim := NewSimulator(20, rand.New(rand.NewSource(42)))
	mid := decimal.NewFromInt(50000)

	for i := 0; i < 50; i++ {
		ladder := sim.Regenerate(mid)
		require.Len(t, ladder.Bids, 20)
		require.Len(t, ladder.Asks, 20)
		assertLadderShape(t, ladder)
	}
}

func TestRegenerateQtyBounds(t *testing.T) {
	sim := NewSimulator(20, rand.New(rand.NewSource(7)))
	ladder := sim.Regenerate(decimal.NewFromInt(3500))

	lo := decimal.NewFromFloat(minQty)
	hi := decimal.NewFromFloat(maxQty)
	for _, side := range [][]Level{ladder.Bids, ladder.Asks} {
		for _, level := range side {
			assert.True(t, level.Qty.GreaterThanOrEqual(lo))
			assert.True(t, level.Qty.LessThanOrEqual(hi))
		}
	}
}

func TestRegenerateSpacingNearStep(t *testing.T) {
	sim := NewSimulator(10, rand.New(rand.NewSource(3)))
	mid := decimal.NewFromInt(50000)
	step := 50000 * stepFraction

	ladder := sim.Regenerate(mid)
	midF, _ := mid.Float64()
	for i, ask := range ladder.Asks {
		askF, _ := ask.Price.Float64()
		offset := askF - midF
		want := float64(i+1) * step
		assert.InDelta(t, want, offset, step*jitterFraction+1e-9, "ask %d", i)
	}
}

func TestJitterPreservesShape(t *testing.T) {
	sim := NewSimulator(20, rand.New(rand.NewSource(99)))
	ladder := sim.Regenerate(decimal.NewFromInt(160))

	for i := 0; i < 50; i++ {
		ladder = sim.Jitter(ladder)
		require.Len(t, ladder.Bids, 20)
		require.Len(t, ladder.Asks, 20)
		assertLadderShape(t, ladder)
	}
}

func TestBestBidAsk(t *testing.T) {
	sim := NewSimulator(5, rand.New(rand.NewSource(1)))
	ladder := sim.Regenerate(decimal.NewFromInt(50000))

	bid, ask, ok := ladder.BestBidAsk()
	require.True(t, ok)
	assert.True(t, bid.LessThan(ask))
	assert.True(t, bid.Equal(ladder.Bids[0].Price))
	assert.True(t, ask.Equal(ladder.Asks[0].Price))

	_, _, ok = Ladder{}.BestBidAsk()
	assert.False(t, ok)
}

func TestNewSimulatorDefaults(t *testing.T) {
	sim := NewSimulator(0, nil)
	ladder := sim.Regenerate(decimal.NewFromInt(100))
	assert.Len(t, ladder.Bids, DefaultLevels)
}
