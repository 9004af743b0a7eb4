package candle

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLC bar.
type Candle struct {
	Time  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Period is the bar interval.
type Period time.Duration

const (
	PeriodM15 = Period(15 * time.Minute)
	PeriodH1  = Period(time.Hour)
	PeriodH4  = Period(4 * time.Hour)
	PeriodD1  = Period(24 * time.Hour)

	DefaultBars = 60
)

func (p Period) Duration() time.Duration {
	return time.Duration(p)
}

// align truncates t down to the period boundary.
func (p Period) align(t time.Time) time.Time {
	return t.Truncate(time.Duration(p))
}

// GenInitial builds a synthetic random-walk history of n bars anchored at
// seed, ending at the current period. Per-bar swing is bounded at ~2% of the
// seed. The series is backfill for display only; live bars come from ticks.
func GenInitial(seed decimal.Decimal, period Period, n int, now time.Time, rng *rand.Rand) []Candle {
	if n <= 0 {
		n = DefaultBars
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}
	seedF, _ := seed.Float64()
	amp := seedF * 0.02

	aligned := period.align(now)
	prev := seedF
	out := make([]Candle, 0, n)
	for i := 0; i < n; i++ {
		barTime := aligned.Add(-time.Duration(n-1-i) * period.Duration())
		open := prev
		close := open + rng.Float64()*amp*2 - amp
		high := maxF(open, close) + rng.Float64()*amp
		low := minF(open, close) - rng.Float64()*amp
		prev = close
		out = append(out, Candle{
			Time:  barTime,
			Open:  decimal.NewFromFloat(open),
			High:  decimal.NewFromFloat(high),
			Low:   decimal.NewFromFloat(low),
			Close: decimal.NewFromFloat(close),
		})
	}
	return out
}

// UpdateByTick folds one price into the series: within the last bar's period
// the bar is updated in place, across a boundary a new aligned bar opens at
// the previous close. The series length is capped at maxBars.
func UpdateByTick(series []Candle, period Period, now time.Time, price decimal.Decimal, maxBars int) []Candle {
	if len(series) == 0 {
		return series
	}
	if maxBars <= 0 {
		maxBars = DefaultBars
	}
	last := series[len(series)-1]

	if now.Before(last.Time.Add(period.Duration())) {
		last.Close = price
		if price.GreaterThan(last.High) {
			last.High = price
		}
		if price.LessThan(last.Low) {
			last.Low = price
		}
		out := make([]Candle, len(series))
		copy(out, series)
		out[len(out)-1] = last
		return out
	}

	next := Candle{
		Time:  period.align(now),
		Open:  last.Close,
		High:  decimal.Max(last.Close, price),
		Low:   decimal.Min(last.Close, price),
		Close: price,
	}
	out := make([]Candle, 0, len(series)+1)
	out = append(out, series...)
	out = append(out, next)
	if len(out) > maxBars {
		out = out[len(out)-maxBars:]
	}
	return out
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
