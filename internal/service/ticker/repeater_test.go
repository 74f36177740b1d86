package ticker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRepeaterTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int32
	r := New(5*time.Millisecond, func(time.Time) { ticks.Add(1) })

	require.True(t, r.Start())
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, time.Millisecond)

	r.Stop()
	assert.False(t, r.Running())

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no tick may be observed after Stop returns")
}

func TestRepeaterStartTwiceAndStopIdempotent(t *testing.T) {
	r := New(time.Hour, func(time.Time) {})

	assert.True(t, r.Start())
	assert.False(t, r.Start())
	assert.True(t, r.Running())

	r.Stop()
	r.Stop()
	assert.False(t, r.Running())
}

func TestRepeaterRestart(t *testing.T) {
	var ticks atomic.Int32
	r := New(5*time.Millisecond, func(time.Time) { ticks.Add(1) })

	r.Start()
	r.Stop()
	require.True(t, r.Start())
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
	r.Stop()
}
