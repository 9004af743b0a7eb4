package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

var (
	ErrInvalidOrder = errors.New("ledger: non-positive price or quantity")
	ErrBadSide      = errors.New("ledger: unknown order side")
	ErrBadType      = errors.New("ledger: unknown order type")
)

// Ledger owns the order collection. Orders are immutable snapshots; every
// mutation replaces the stored value, so terminal states are final and
// callers can keep returned orders without copying.
type Ledger struct {
	mu     sync.Mutex
	orders map[int64]model.Order
	nextID int64

	watchMu  sync.Mutex
	watchers map[chan []model.Order]struct{}

	metrics *obs.Metrics
}

// New creates an empty ledger.
func New(metrics *obs.Metrics) *Ledger {
	return &Ledger{
		orders:   make(map[int64]model.Order),
		nextID:   1,
		watchers: make(map[chan []model.Order]struct{}),
		metrics:  metrics,
	}
}

// Place validates and stores a new order. MARKET orders fill on submit since
// there is no real execution venue; LIMIT orders start OPEN. IDs are unique
// and strictly increasing across all symbols.
func (l *Ledger) Place(symbol model.Symbol, price, qty decimal.Decimal, side enum.Side, typ enum.OrderType) (model.Order, error) {
	if !side.IsAvailable() {
		return model.Order{}, ErrBadSide
	}
	if !typ.IsAvailable() {
		return model.Order{}, ErrBadType
	}
	if !price.IsPositive() || !qty.IsPositive() {
		return model.Order{}, ErrInvalidOrder
	}

	status := enum.OrderStatusOpen
	if typ == enum.OrderTypeMarket {
		status = enum.OrderStatusFilled
	}

	l.mu.Lock()
	order := model.Order{
		ID:        l.nextID,
		Symbol:    symbol,
		Price:     price,
		Qty:       qty,
		Side:      side,
		Type:      typ,
		Status:    status,
		CreatedAt: time.Now(),
	}
	l.nextID++
	l.orders[order.ID] = order
	l.mu.Unlock()

	l.notify()
	return order, nil
}

// Cancel transitions an OPEN order to CANCELED. Unknown ids and terminal
// orders are a no-op, not an error.
func (l *Ledger) Cancel(id int64) {
	l.mu.Lock()
	order, ok := l.orders[id]
	changed := ok && order.Status == enum.OrderStatusOpen
	if changed {
		order.Status = enum.OrderStatusCanceled
		l.orders[id] = order
	}
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// CancelAll cancels every OPEN order for the symbol.
func (l *Ledger) CancelAll(symbol model.Symbol) {
	l.mu.Lock()
	changed := false
	for id, order := range l.orders {
		if order.Symbol == symbol && order.Status == enum.OrderStatusOpen {
			order.Status = enum.OrderStatusCanceled
			l.orders[id] = order
			changed = true
		}
	}
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// MatchWith fills open orders that cross the BBO: a BUY fills when
// bestAsk <= order price, a SELL when bestBid >= order price (inclusive).
// Runs on every BBO update, O(open orders), and only flips statuses;
// a filled order never triggers further matching.
func (l *Ledger) MatchWith(bestBid, bestAsk decimal.Decimal) int {
	l.mu.Lock()
	filled := 0
	for id, order := range l.orders {
		if order.Status != enum.OrderStatusOpen {
			continue
		}
		crossed := false
		switch order.Side {
		case enum.SideBuy:
			crossed = bestAsk.LessThanOrEqual(order.Price)
		case enum.SideSell:
			crossed = bestBid.GreaterThanOrEqual(order.Price)
		}
		if crossed {
			order.Status = enum.OrderStatusFilled
			l.orders[id] = order
			filled++
		}
	}
	l.mu.Unlock()

	if filled > 0 {
		l.metrics.IncMatched(filled)
		l.notify()
	}
	return filled
}

// Get returns one order by id.
func (l *Ledger) Get(id int64) (model.Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[id]
	return order, ok
}

// Snapshot returns all orders sorted by id.
func (l *Ledger) Snapshot() []model.Order {
	l.mu.Lock()
	out := make([]model.Order, 0, len(l.orders))
	for _, order := range l.orders {
		out = append(out, order)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Open returns the OPEN orders for a symbol, sorted by id.
func (l *Ledger) Open(symbol model.Symbol) []model.Order {
	return l.filter(func(o model.Order) bool {
		return o.Symbol == symbol && o.Status == enum.OrderStatusOpen
	})
}

// History returns the terminal orders for a symbol, sorted by id.
func (l *Ledger) History(symbol model.Symbol) []model.Order {
	return l.filter(func(o model.Order) bool {
		return o.Symbol == symbol && o.Status.IsTerminal()
	})
}

func (l *Ledger) filter(keep func(model.Order) bool) []model.Order {
	l.mu.Lock()
	out := make([]model.Order, 0, len(l.orders))
	for _, order := range l.orders {
		if keep(order) {
			out = append(out, order)
		}
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Watch returns a channel receiving the full order snapshot after every
// mutation, starting with the current one. A slow watcher loses intermediate
// snapshots, never the latest. Stop releases the channel.
func (l *Ledger) Watch(buffer int) (snapshots <-chan []model.Order, stop func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan []model.Order, buffer)

	l.watchMu.Lock()
	l.watchers[ch] = struct{}{}
	l.watchMu.Unlock()

	l.send(ch, l.Snapshot())

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.watchMu.Lock()
			delete(l.watchers, ch)
			l.watchMu.Unlock()
			close(ch)
		})
	}
}

func (l *Ledger) notify() {
	snapshot := l.Snapshot()
	l.watchMu.Lock()
	for ch := range l.watchers {
		l.send(ch, snapshot)
	}
	l.watchMu.Unlock()
}

// send delivers without blocking: on a full buffer the oldest snapshot is
// replaced by the newest.
func (l *Ledger) send(ch chan []model.Order, snapshot []model.Order) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
