package stream

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelayGrowsAndCaps(t *testing.T) {
	p := NewPolicy(2*time.Second, 10*time.Second, 2)
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 10*time.Second, p.Delay(4))
	assert.Equal(t, 10*time.Second, p.Delay(50))
}

func TestPolicyDefaults(t *testing.T) {
	p := NewPolicy(0, 0, 0)
	assert.Equal(t, DefaultReconnectBase, p.Delay(1))
	assert.Equal(t, DefaultReconnectMax, p.Delay(100))
}

func TestPolicyScheduleDedup(t *testing.T) {
	p := NewPolicy(20*time.Millisecond, time.Second, 2)
	var fired atomic.Int32

	require.True(t, p.Schedule(func() { fired.Add(1) }))
	// Second failure signal while one timer is pending must be refused.
	require.False(t, p.Schedule(func() { fired.Add(1) }))
	require.True(t, p.Pending())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.False(t, p.Pending())

	// After the timer fired, scheduling works again.
	require.True(t, p.Schedule(func() { fired.Add(1) }))
	p.Cancel()
}

func TestPolicyCancelStopsPendingTimer(t *testing.T) {
	p := NewPolicy(20*time.Millisecond, time.Second, 2)
	var fired atomic.Int32

	require.True(t, p.Schedule(func() { fired.Add(1) }))
	p.Cancel()
	assert.False(t, p.Pending())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestPolicyResetRestartsBackoff(t *testing.T) {
	p := NewPolicy(10*time.Millisecond, time.Second, 2)
	require.True(t, p.Schedule(func() {}))
	p.Cancel()
	require.True(t, p.Schedule(func() {}))
	p.Cancel()

	p.Reset()
	p.mu.Lock()
	attempt := p.attempt
	p.mu.Unlock()
	assert.Equal(t, 0, attempt)
}
