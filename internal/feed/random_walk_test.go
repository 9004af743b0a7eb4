package feed

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/stream"
)

type recordSink struct {
	ticks []model.TickEvent
}

func (s *recordSink) Publish(tick model.TickEvent) {
	s.ticks = append(s.ticks, tick)
}

func TestNewRandomWalkValidation(t *testing.T) {
	_, err := NewRandomWalk(nil, []model.Symbol{"BTCUSDT"}, 0, 0, nil)
	assert.ErrorIs(t, err, stream.ErrNilSink)

	_, err = NewRandomWalk(&recordSink{}, nil, 0, 0, nil)
	assert.ErrorIs(t, err, ErrNoSymbols)
}

func TestStepPublishesEverySymbol(t *testing.T) {
	sink := &recordSink{}
	symbols := []model.Symbol{"BTCUSDT", "ETHUSDT", "XYZUSDT"}
	walk, err := NewRandomWalk(sink, symbols, 0, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	now := time.Now()
	walk.Step(now)

	require.Len(t, sink.ticks, len(symbols))
	for i, tick := range sink.ticks {
		assert.Equal(t, symbols[i], tick.Symbol)
		assert.True(t, tick.Price.IsPositive())
		assert.True(t, tick.EventTime.Equal(now))
		assert.False(t, tick.HasStats)
	}
}

func TestStepStaysNearBasePrice(t *testing.T) {
	sink := &recordSink{}
	walk, err := NewRandomWalk(sink, []model.Symbol{"BTCUSDT"}, 0, 0.01, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	walk.Step(time.Now())
	price, _ := sink.ticks[0].Price.Float64()
	assert.InDelta(t, 65000, price, 65000*0.01)
}

func TestStepUnknownSymbolStartsAtOneHundred(t *testing.T) {
	sink := &recordSink{}
	walk, err := NewRandomWalk(sink, []model.Symbol{"XYZUSDT"}, 0, 0.01, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	walk.Step(time.Now())
	price, _ := sink.ticks[0].Price.Float64()
	assert.InDelta(t, 100, price, 1)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	sink := &recordSink{}
	walk, err := NewRandomWalk(sink, []model.Symbol{"BTCUSDT"}, time.Millisecond, 0, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		walk.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.NotEmpty(t, sink.ticks)
}
