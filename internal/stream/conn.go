package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

const (
	// Market-data-only endpoint; no API key required.
	DefaultEndpoint = "wss://data-stream.binance.vision/ws"

	defaultDialTimeout = 10 * time.Second
	writeTimeout       = 5 * time.Second
)

var (
	ErrNoSymbols   = errors.New("stream: empty symbol set")
	ErrNilSink     = errors.New("stream: nil sink")
	ErrBadEndpoint = errors.New("stream: empty endpoint")
)

// Sink receives normalized tick events. The ticker hub implements it.
type Sink interface {
	Publish(tick model.TickEvent)
}

// Config describes one logical subscription.
type Config struct {
	Endpoint    string
	Symbols     []model.Symbol
	Kind        enum.StreamKind
	DialTimeout time.Duration
	Policy      *Policy
	Metrics     *obs.Metrics
}

// Connection maintains exactly one logical subscription over a long-lived
// websocket and reconnects transparently on failure. The upstream pings every
// ~20s and gorilla's default handler answers during reads, so no client ping
// loop is needed.
type Connection struct {
	cfg     Config
	sink    Sink
	streams []string
	policy  *Policy
	metrics *obs.Metrics

	mu      sync.Mutex
	conn    *websocket.Conn
	state   enum.ConnState
	stopped bool

	subID atomic.Int64
}

// New validates the config and builds a connection. Nothing is dialed yet.
func New(cfg Config, sink Sink) (*Connection, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	if len(cfg.Symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if !cfg.Kind.IsAvailable() {
		cfg.Kind = enum.StreamTrade
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.Policy == nil {
		cfg.Policy = NewPolicy(0, 0, 0)
	}

	streams := make([]string, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		streams = append(streams, symbol.StreamName(cfg.Kind))
	}

	return &Connection{
		cfg:     cfg,
		sink:    sink,
		streams: streams,
		policy:  cfg.Policy,
		metrics: cfg.Metrics,
		state:   enum.ConnDisconnected,
	}, nil
}

// Start opens the transport asynchronously. Connect failures are not returned
// to the caller; they transition the state machine to Failed and schedule a
// reconnect.
func (c *Connection) Start(ctx context.Context) {
	go c.connect(ctx)
}

// Stop closes the connection for good. It cancels any pending reconnect
// before releasing the transport and is safe to call more than once.
func (c *Connection) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.setStateLocked(enum.ConnClosing)
	c.policy.Cancel()
	conn := c.conn
	c.conn = nil
	c.setStateLocked(enum.ConnDisconnected)
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(writeTimeout)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() enum.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) connect(ctx context.Context) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(enum.ConnConnecting)
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.Endpoint, nil)
	if err != nil {
		c.fail(ctx, nil, errors.Wrap(err, "dial"))
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.setStateLocked(enum.ConnSubscribed)
	c.mu.Unlock()

	req := SubscribeRequest{
		Method: "SUBSCRIBE",
		Params: c.streams,
		ID:     c.subID.Add(1),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(req); err != nil {
		c.fail(ctx, conn, errors.Wrap(err, "write subscribe frame"))
		return
	}
	_ = conn.SetWriteDeadline(time.Time{})

	c.mu.Lock()
	c.setStateLocked(enum.ConnStreaming)
	c.mu.Unlock()
	c.policy.Reset()
	logs.Infof("subscribed %v", c.streams)

	go c.readLoop(ctx, conn)
}

func (c *Connection) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.fail(ctx, conn, errors.Wrap(err, "read frame"))
			return
		}
		c.handleFrame(raw)
	}
}

// handleFrame parses one inbound payload. Malformed frames are dropped
// without touching the connection state; they cannot be re-requested.
func (c *Connection) handleFrame(raw []byte) {
	c.metrics.IncFrame()
	tick, class := parseFrame(raw, time.Now())
	switch class {
	case frameAck:
		c.metrics.IncAck()
		logs.Debugf("discard ack/error frame: %s", raw)
	case frameDropped:
		c.metrics.IncMalformed()
		logs.Debugf("drop malformed frame: %s", raw)
	default:
		c.metrics.IncTick()
		c.sink.Publish(tick)
	}
}

// fail transitions to Failed and schedules a reconnect, deduplicating against
// one already in flight. Stale sessions (a read loop whose transport was
// already replaced) are ignored.
func (c *Connection) fail(ctx context.Context, conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if conn != nil && c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(enum.ConnFailed)
	current := c.conn
	c.conn = nil
	c.mu.Unlock()

	if current != nil {
		_ = current.Close()
	}

	if c.policy.Schedule(func() { c.reconnect(ctx) }) {
		c.metrics.IncReconnectScheduled()
		logs.Warnf("stream failed, reconnect scheduled, err: %+v", err)
	} else {
		c.metrics.IncReconnectDeduped()
	}
}

func (c *Connection) reconnect(ctx context.Context) {
	c.mu.Lock()
	stopped := c.stopped
	if !stopped {
		c.setStateLocked(enum.ConnDisconnected)
	}
	c.mu.Unlock()
	if stopped || ctx.Err() != nil {
		return
	}
	c.connect(ctx)
}

func (c *Connection) setStateLocked(next enum.ConnState) {
	if c.state == next {
		return
	}
	logs.Debugf("stream %s -> %s", c.state, next)
	c.state = next
}
