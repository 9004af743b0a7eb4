package hub

import (
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/obs"
)

var hundred = decimal.NewFromInt(100)

// Hub is the single source of truth for the latest price per symbol across
// all stream connections. Rows are stored in an immutable map replaced
// wholesale on each publish, so readers never see a partial update.
type Hub struct {
	state   atomic.Value // map[model.Symbol]model.Ticker, read-only once stored
	writeMu sync.Mutex   // serializes publishers

	subMu   sync.Mutex
	subs    map[*Subscription]struct{}
	closed  bool
	bufSize int

	metrics *obs.Metrics
}

// New creates an empty hub. bufSize bounds each subscriber queue; when a
// slow subscriber falls behind, its oldest rows are dropped rather than
// stalling the publish path.
func New(bufSize int, metrics *obs.Metrics) *Hub {
	if bufSize <= 0 {
		bufSize = 64
	}
	h := &Hub{
		subs:    make(map[*Subscription]struct{}),
		bufSize: bufSize,
		metrics: metrics,
	}
	h.state.Store(map[model.Symbol]model.Ticker{})
	return h
}

// Publish updates the symbol's row and broadcasts it to subscribers.
// changePercent is computed against the previous tick, 0 on the first tick;
// ticker-stream events carry the exchange 24h percent and keep it as-is.
func (h *Hub) Publish(tick model.TickEvent) {
	h.writeMu.Lock()
	old := h.state.Load().(map[model.Symbol]model.Ticker)
	prev, hasPrev := old[tick.Symbol]

	row := model.Ticker{
		Symbol:      tick.Symbol,
		LastPrice:   tick.Price,
		QuoteVolume: tick.QuoteVolume,
		EventTime:   tick.EventTime,
	}
	if hasPrev {
		row.PreviousPrice = prev.LastPrice
		if !tick.HasStats && row.QuoteVolume.IsZero() {
			row.QuoteVolume = prev.QuoteVolume
		}
	}
	switch {
	case tick.HasStats:
		row.ChangePercent = tick.ChangePercent
	case hasPrev && !prev.LastPrice.IsZero():
		row.ChangePercent = tick.Price.Sub(prev.LastPrice).Div(prev.LastPrice).Mul(hundred)
	default:
		row.ChangePercent = decimal.Zero
	}

	next := make(map[model.Symbol]model.Ticker, len(old)+1)
	for symbol, ticker := range old {
		next[symbol] = ticker
	}
	next[tick.Symbol] = row
	h.state.Store(next)
	h.writeMu.Unlock()

	h.subMu.Lock()
	for sub := range h.subs {
		sub.offer(row)
	}
	h.subMu.Unlock()
}

// Snapshot returns the current state map. The map is immutable; callers must
// not modify it.
func (h *Hub) Snapshot() map[model.Symbol]model.Ticker {
	return h.state.Load().(map[model.Symbol]model.Ticker)
}

// Last returns the row for one symbol.
func (h *Hub) Last(symbol model.Symbol) (model.Ticker, bool) {
	row, ok := h.Snapshot()[symbol]
	return row, ok
}

// Subscribe registers a consumer. No symbols means all symbols. The current
// snapshot rows matching the filter are delivered before any live update.
func (h *Hub) Subscribe(symbols ...model.Symbol) *Subscription {
	sub := newSubscription(h, h.bufSize)
	sub.setFilter(symbols)

	h.subMu.Lock()
	if h.closed {
		h.subMu.Unlock()
		sub.Close()
		return sub
	}
	h.subs[sub] = struct{}{}
	h.subMu.Unlock()

	sub.seed(h.Snapshot())
	return sub
}

// Close shuts down all subscriptions. Further publishes are still recorded in
// the state map but reach no subscribers.
func (h *Hub) Close() {
	h.subMu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = map[*Subscription]struct{}{}
	h.subMu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.subMu.Lock()
	delete(h.subs, sub)
	h.subMu.Unlock()
}
