package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

type chanSink struct {
	ch chan model.TickEvent
}

func newChanSink() *chanSink {
	return &chanSink{ch: make(chan model.TickEvent, 16)}
}

func (s *chanSink) Publish(tick model.TickEvent) {
	s.ch <- tick
}

// newWsServer runs session for every websocket upgrade and returns the ws URL.
func newWsServer(t *testing.T, session func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		session(conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestConnectionValidation(t *testing.T) {
	_, err := New(Config{}, newChanSink())
	assert.ErrorIs(t, err, ErrNoSymbols)

	_, err = New(Config{Symbols: []model.Symbol{"BTCUSDT"}}, nil)
	assert.ErrorIs(t, err, ErrNilSink)
}

func TestConnectionSubscribeAndStream(t *testing.T) {
	subscribed := make(chan SubscribeRequest, 1)
	url := newWsServer(t, func(conn *websocket.Conn) {
		var req SubscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subscribed <- req
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"result":null,"id":1}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"s":"BTCUSDT","p":"50000.00"}`))
		// Hold the session open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	sink := newChanSink()
	c, err := New(Config{
		Endpoint: url,
		Symbols:  []model.Symbol{"BTCUSDT"},
		Kind:     enum.StreamTrade,
		Policy:   NewPolicy(10*time.Millisecond, time.Second, 2),
	}, sink)
	require.NoError(t, err)

	c.Start(t.Context())
	defer c.Stop()

	select {
	case req := <-subscribed:
		assert.Equal(t, "SUBSCRIBE", req.Method)
		assert.Equal(t, []string{"btcusdt@trade"}, req.Params)
		assert.NotZero(t, req.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe frame received")
	}

	select {
	case tick := <-sink.ch:
		assert.Equal(t, "BTCUSDT", tick.Symbol.Canonical())
		assert.Equal(t, "50000", tick.Price.String())
	case <-time.After(2 * time.Second):
		t.Fatal("no tick published")
	}
	assert.Equal(t, enum.ConnStreaming, c.State())
}

func TestConnectionReconnectsAfterServerClose(t *testing.T) {
	sessions := make(chan SubscribeRequest, 4)
	url := newWsServer(t, func(conn *websocket.Conn) {
		var req SubscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		sessions <- req
		if len(sessions) > 1 {
			// Second session stays up.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
		// First session drops immediately after the subscribe.
	})

	sink := newChanSink()
	c, err := New(Config{
		Endpoint: url,
		Symbols:  []model.Symbol{"ETHUSDT"},
		Policy:   NewPolicy(10*time.Millisecond, 100*time.Millisecond, 2),
	}, sink)
	require.NoError(t, err)

	c.Start(t.Context())
	defer c.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-sessions:
		case <-time.After(3 * time.Second):
			t.Fatalf("expected %d sessions, got %d", 2, i)
		}
	}
}

func TestConnectionStopIsIdempotent(t *testing.T) {
	sink := newChanSink()
	c, err := New(Config{
		Endpoint: "ws://127.0.0.1:1", // never dialed
		Symbols:  []model.Symbol{"BTCUSDT"},
	}, sink)
	require.NoError(t, err)

	c.Stop()
	first := c.State()
	c.Stop()
	assert.Equal(t, first, c.State())
	assert.Equal(t, enum.ConnDisconnected, c.State())
}

func TestConnectionStopCancelsPendingReconnect(t *testing.T) {
	sink := newChanSink()
	policy := NewPolicy(time.Hour, time.Hour, 2)
	metrics := obs.NewMetrics()
	c, err := New(Config{
		Endpoint: "ws://127.0.0.1:1",
		Symbols:  []model.Symbol{"BTCUSDT"},
		Policy:   policy,
		Metrics:  metrics,
	}, sink)
	require.NoError(t, err)

	c.fail(context.Background(), nil, errors.New("boom"))
	require.True(t, policy.Pending())

	c.Stop()
	assert.False(t, policy.Pending())
}

func TestConnectionFailureDedupsReconnect(t *testing.T) {
	sink := newChanSink()
	policy := NewPolicy(time.Hour, time.Hour, 2)
	metrics := obs.NewMetrics()
	c, err := New(Config{
		Endpoint: "ws://127.0.0.1:1",
		Symbols:  []model.Symbol{"BTCUSDT"},
		Policy:   policy,
		Metrics:  metrics,
	}, sink)
	require.NoError(t, err)
	defer c.Stop()

	c.fail(context.Background(), nil, errors.New("first"))
	c.fail(context.Background(), nil, errors.New("second"))

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.ReconnectScheduled)
	assert.Equal(t, uint64(1), snap.ReconnectDeduped)
}

func TestHandleFrameMalformedKeepsStreaming(t *testing.T) {
	sink := newChanSink()
	metrics := obs.NewMetrics()
	c, err := New(Config{
		Endpoint: "ws://127.0.0.1:1",
		Symbols:  []model.Symbol{"BTCUSDT"},
		Metrics:  metrics,
	}, sink)
	require.NoError(t, err)

	c.mu.Lock()
	c.state = enum.ConnStreaming
	c.mu.Unlock()

	c.handleFrame([]byte(`{"foo":"bar"}`))

	assert.Equal(t, enum.ConnStreaming, c.State())
	assert.Empty(t, sink.ch)
	assert.Equal(t, uint64(1), metrics.Snapshot().MalformedDropped)
}
