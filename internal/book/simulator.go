package book

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

const (
	// Level spacing as a fraction of mid price (0.05%).
	stepFraction = 0.0005
	// Jitter bound as a fraction of the step.
	jitterFraction = 0.2

	minQty = 0.02
	maxQty = 0.3

	DefaultLevels = 20
)

// Level is one synthetic price level.
type Level struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// Ladder is a synthetic depth-of-book anchored at a mid price: bids descend
// and asks ascend away from mid. It is a display and matching aid derived
// from the last trade price, not a real exchange book.
type Ladder struct {
	Mid  decimal.Decimal
	Bids []Level
	Asks []Level
}

// BestBidAsk returns the BBO of the ladder.
func (l Ladder) BestBidAsk() (bid, ask decimal.Decimal, ok bool) {
	if len(l.Bids) == 0 || len(l.Asks) == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	return l.Bids[0].Price, l.Asks[0].Price, true
}

// Simulator regenerates ladders around the latest price. Not safe for
// concurrent use; callers drive it from a single goroutine.
type Simulator struct {
	levels int
	rng    *rand.Rand
}

// NewSimulator builds a simulator with the given level count per side.
func NewSimulator(levels int, rng *rand.Rand) *Simulator {
	if levels <= 0 {
		levels = DefaultLevels
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Simulator{levels: levels, rng: rng}
}

// Regenerate builds a fresh ladder around mid. Level i sits i*step away from
// mid (step = 0.05% of mid) plus bounded symmetric jitter small enough to
// never reorder adjacent levels.
func (s *Simulator) Regenerate(mid decimal.Decimal) Ladder {
	midF, _ := mid.Float64()
	step := midF * stepFraction

	ladder := Ladder{
		Mid:  mid,
		Bids: make([]Level, 0, s.levels),
		Asks: make([]Level, 0, s.levels),
	}
	for i := 1; i <= s.levels; i++ {
		jitter := step * jitterFraction * (s.rng.Float64()*2 - 1)
		offset := float64(i)*step + jitter
		ladder.Bids = append(ladder.Bids, Level{
			Price: decimal.NewFromFloat(midF - offset),
			Qty:   s.randQty(),
		})
		ladder.Asks = append(ladder.Asks, Level{
			Price: decimal.NewFromFloat(midF + offset),
			Qty:   s.randQty(),
		})
	}
	return ladder
}

// Jitter rebuilds the ladder's prices for idle refresh. Offsets are anchored
// to the ideal i*step positions, not the previous prices, so repeated calls
// never drift and side ordering always holds. Quantities are nudged in place.
func (s *Simulator) Jitter(ladder Ladder) Ladder {
	midF, _ := ladder.Mid.Float64()
	step := midF * stepFraction

	out := Ladder{
		Mid:  ladder.Mid,
		Bids: make([]Level, len(ladder.Bids)),
		Asks: make([]Level, len(ladder.Asks)),
	}
	for i := range ladder.Bids {
		d := (s.rng.Float64()*2 - 1) * step * jitterFraction
		offset := float64(i+1)*step + d
		out.Bids[i] = Level{
			Price: decimal.NewFromFloat(midF - offset),
			Qty:   s.nudgeQty(ladder.Bids[i].Qty),
		}
		out.Asks[i] = Level{
			Price: decimal.NewFromFloat(midF + offset),
			Qty:   s.nudgeQty(ladder.Asks[i].Qty),
		}
	}
	return out
}

func (s *Simulator) randQty() decimal.Decimal {
	return decimal.NewFromFloat(minQty + s.rng.Float64()*(maxQty-minQty))
}

func (s *Simulator) nudgeQty(qty decimal.Decimal) decimal.Decimal {
	q, _ := qty.Float64()
	q += (s.rng.Float64() - 0.5) * 0.02
	if q < minQty {
		q = minQty
	}
	if q > maxQty {
		q = maxQty
	}
	return decimal.NewFromFloat(q)
}
