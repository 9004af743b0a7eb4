package obs

import "sync/atomic"

// Metrics collects lightweight counters across the streaming core.
// All methods are safe for concurrent use and nil receivers, so callers
// never have to guard the hot path.
type Metrics struct {
	framesReceived     atomic.Uint64
	ticksPublished     atomic.Uint64
	acksDiscarded      atomic.Uint64
	malformedDropped   atomic.Uint64
	reconnectScheduled atomic.Uint64
	reconnectDeduped   atomic.Uint64
	subscriberDrops    atomic.Uint64
	ordersMatched      atomic.Uint64
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	FramesReceived     uint64
	TicksPublished     uint64
	AcksDiscarded      uint64
	MalformedDropped   uint64
	ReconnectScheduled uint64
	ReconnectDeduped   uint64
	SubscriberDrops    uint64
	OrdersMatched      uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncFrame() {
	if m != nil {
		m.framesReceived.Add(1)
	}
}

func (m *Metrics) IncTick() {
	if m != nil {
		m.ticksPublished.Add(1)
	}
}

func (m *Metrics) IncAck() {
	if m != nil {
		m.acksDiscarded.Add(1)
	}
}

func (m *Metrics) IncMalformed() {
	if m != nil {
		m.malformedDropped.Add(1)
	}
}

func (m *Metrics) IncReconnectScheduled() {
	if m != nil {
		m.reconnectScheduled.Add(1)
	}
}

func (m *Metrics) IncReconnectDeduped() {
	if m != nil {
		m.reconnectDeduped.Add(1)
	}
}

func (m *Metrics) IncSubscriberDrop() {
	if m != nil {
		m.subscriberDrops.Add(1)
	}
}

func (m *Metrics) IncMatched(n int) {
	if m != nil && n > 0 {
		m.ordersMatched.Add(uint64(n))
	}
}

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		FramesReceived:     m.framesReceived.Load(),
		TicksPublished:     m.ticksPublished.Load(),
		AcksDiscarded:      m.acksDiscarded.Load(),
		MalformedDropped:   m.malformedDropped.Load(),
		ReconnectScheduled: m.reconnectScheduled.Load(),
		ReconnectDeduped:   m.reconnectDeduped.Load(),
		SubscriberDrops:    m.subscriberDrops.Load(),
		OrdersMatched:      m.ordersMatched.Load(),
	}
}
