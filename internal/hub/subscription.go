package hub

import (
	"sort"
	"sync"

	"main/internal/model"
)

// Subscription is one consumer's bounded view of the hub. Rows for a symbol
// arrive in publish order; when the buffer is full the oldest row is dropped
// so the publisher never blocks.
type Subscription struct {
	hub *Hub

	mu       sync.Mutex
	notEmpty *sync.Cond
	buf      []model.Ticker
	head     int
	size     int
	closed   bool

	filter   map[model.Symbol]struct{} // nil means all symbols
	distinct bool
	lastSent map[model.Symbol]model.Ticker
}

func newSubscription(h *Hub, capacity int) *Subscription {
	s := &Subscription{
		hub: h,
		buf: make([]model.Ticker, capacity),
	}
	s.notEmpty = sync.NewCond(&s.mu)
	return s
}

// Distinct drops updates whose row value did not change, so consumers that
// render one symbol are not woken for redundant repaints. Applied at the
// subscription boundary only; the hub state is untouched.
func (s *Subscription) Distinct() *Subscription {
	s.mu.Lock()
	s.distinct = true
	if s.lastSent == nil {
		s.lastSent = make(map[model.Symbol]model.Ticker)
	}
	s.mu.Unlock()
	return s
}

// Next blocks until a row is available or the subscription is closed.
func (s *Subscription) Next() (model.Ticker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.size > 0 {
			row := s.buf[s.head]
			s.buf[s.head] = model.Ticker{}
			s.head = (s.head + 1) % len(s.buf)
			s.size--
			return row, true
		}
		if s.closed {
			return model.Ticker{}, false
		}
		s.notEmpty.Wait()
	}
}

// Len returns the number of buffered rows.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// SetSymbols swaps the symbol filter without tearing the subscription down.
// Buffered rows for symbols still in the set are kept; rows for removed
// symbols are discarded, and current snapshot rows for added symbols are
// delivered immediately.
func (s *Subscription) SetSymbols(symbols ...model.Symbol) {
	snapshot := s.hub.Snapshot()

	s.mu.Lock()
	prev := s.filter
	s.setFilterLocked(symbols)

	if s.filter != nil {
		kept := make([]model.Ticker, 0, s.size)
		for i := 0; i < s.size; i++ {
			row := s.buf[(s.head+i)%len(s.buf)]
			if _, ok := s.filter[row.Symbol]; ok {
				kept = append(kept, row)
			}
		}
		s.head = 0
		s.size = len(kept)
		for i := range s.buf {
			s.buf[i] = model.Ticker{}
		}
		copy(s.buf, kept)
	}

	added := make([]model.Symbol, 0, len(symbols))
	for _, symbol := range symbols {
		if prev == nil {
			continue
		}
		if _, ok := prev[symbol]; !ok {
			added = append(added, symbol)
		}
	}
	s.mu.Unlock()

	for _, symbol := range added {
		if row, ok := snapshot[symbol]; ok {
			s.offer(row)
		}
	}
}

// Close detaches the subscription from the hub and wakes blocked readers.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.head = 0
	s.size = 0
	s.notEmpty.Broadcast()
	s.mu.Unlock()

	s.hub.unsubscribe(s)
}

func (s *Subscription) setFilter(symbols []model.Symbol) {
	s.mu.Lock()
	s.setFilterLocked(symbols)
	s.mu.Unlock()
}

func (s *Subscription) setFilterLocked(symbols []model.Symbol) {
	if len(symbols) == 0 {
		s.filter = nil
		return
	}
	filter := make(map[model.Symbol]struct{}, len(symbols))
	for _, symbol := range symbols {
		filter[symbol] = struct{}{}
	}
	s.filter = filter
}

// seed delivers the current snapshot rows in symbol order.
func (s *Subscription) seed(snapshot map[model.Symbol]model.Ticker) {
	symbols := make([]model.Symbol, 0, len(snapshot))
	for symbol := range snapshot {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	for _, symbol := range symbols {
		s.offer(snapshot[symbol])
	}
}

func (s *Subscription) offer(row model.Ticker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.filter != nil {
		if _, ok := s.filter[row.Symbol]; !ok {
			return
		}
	}
	if s.distinct {
		if last, ok := s.lastSent[row.Symbol]; ok && last.Equal(row) {
			return
		}
		s.lastSent[row.Symbol] = row
	}
	if s.size == len(s.buf) {
		// Drop-oldest keeps the publisher non-blocking under a slow consumer.
		s.head = (s.head + 1) % len(s.buf)
		s.size--
		s.hub.metrics.IncSubscriberDrop()
	}
	s.buf[(s.head+s.size)%len(s.buf)] = row
	s.size++
	s.notEmpty.Signal()
}
