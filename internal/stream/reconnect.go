package stream

import (
	"sync"
	"time"
)

const (
	DefaultReconnectBase   = 2 * time.Second
	DefaultReconnectMax    = 60 * time.Second
	DefaultReconnectFactor = 2.0
)

// Policy owns the reconnect timer for one connection. At most one timer is
// pending at a time: a second schedule request while one is in flight is
// refused, so flapping transports cannot grow timers without bound.
type Policy struct {
	base   time.Duration
	max    time.Duration
	factor float64

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	attempt int
}

// NewPolicy builds a policy with exponential backoff capped at max.
// Zero values fall back to the defaults (2s base, 60s cap, factor 2).
func NewPolicy(base, max time.Duration, factor float64) *Policy {
	if base <= 0 {
		base = DefaultReconnectBase
	}
	if max <= 0 {
		max = DefaultReconnectMax
	}
	if factor < 1 {
		factor = DefaultReconnectFactor
	}
	return &Policy{base: base, max: max, factor: factor}
}

// Delay returns the backoff delay for the given attempt, starting at 1.
func (p *Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return p.base
	}
	delay := float64(p.base)
	for i := 1; i < attempt; i++ {
		delay *= p.factor
		if delay >= float64(p.max) {
			return p.max
		}
	}
	return time.Duration(delay)
}

// Schedule arms the reconnect timer and runs fn when it fires.
// Returns false without arming when a reconnect is already pending.
func (p *Policy) Schedule(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending {
		return false
	}
	p.attempt++
	p.pending = true
	delay := p.Delay(p.attempt)
	p.timer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		p.pending = false
		p.timer = nil
		p.mu.Unlock()
		fn()
	})
	return true
}

// Reset clears the attempt counter after a successful connect.
func (p *Policy) Reset() {
	p.mu.Lock()
	p.attempt = 0
	p.mu.Unlock()
}

// Cancel stops a pending reconnect. Callers must cancel before releasing the
// transport, otherwise a timer could race a deliberate shutdown and reopen a
// connection the caller believes is closed.
func (p *Policy) Cancel() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.pending = false
	p.mu.Unlock()
}

// Pending reports whether a reconnect timer is armed.
func (p *Policy) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}
