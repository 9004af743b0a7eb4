package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickEvent is a single normalized price update produced by the stream parser.
type TickEvent struct {
	Symbol    Symbol
	Price     decimal.Decimal
	EventTime time.Time

	// Ticker-stream extras; zero on plain trade events.
	HasStats      bool
	ChangePercent decimal.Decimal
	QuoteVolume   decimal.Decimal
}

// Ticker is the hub's row state for one symbol.
type Ticker struct {
	Symbol        Symbol
	LastPrice     decimal.Decimal
	PreviousPrice decimal.Decimal
	ChangePercent decimal.Decimal
	QuoteVolume   decimal.Decimal
	EventTime     time.Time
}

// Equal reports value equality; used by the distinct-change subscription filter.
func (t Ticker) Equal(other Ticker) bool {
	return t.Symbol == other.Symbol &&
		t.LastPrice.Equal(other.LastPrice) &&
		t.ChangePercent.Equal(other.ChangePercent) &&
		t.QuoteVolume.Equal(other.QuoteVolume)
}
