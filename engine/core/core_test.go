package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{" DEBUG ", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	} {
		assert.Equal(t, tc.want, ParseLogLevel(tc.in), tc.in)
	}
}

func TestClockElapsed(t *testing.T) {
	now := time.Duration(0)
	c := &Clock{now: func() time.Duration { return now }}

	c.Update()
	require.Zero(t, c.Elapsed(), "clock that was never started must not advance")

	now = 2 * time.Second
	c.Start()
	now = 3500 * time.Millisecond
	c.Update()
	require.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	c.Stop()
	now = 10 * time.Second
	c.Update()
	require.InDelta(t, 1.5, c.Elapsed(), 1e-9, "stopped clock keeps its last reading")
}

func TestFrameMetricsAverageAndFPS(t *testing.T) {
	m := NewFrameMetrics()

	published := false
	// 32 frames of 31.25ms land exactly on one second; the 33rd crosses it.
	for i := 0; i < 33; i++ {
		if m.Update(1.0 / 32.0) {
			require.Equal(t, 32, i, "fps published on the wrong frame")
			published = true
		}
	}
	require.True(t, published)
	assert.Equal(t, 33.0, m.FPS())
	assert.Equal(t, 31.25, m.FrameTime())
}

func TestEventBusFire(t *testing.T) {
	bus := NewEventBus()

	var got []uint32
	first := &struct{}{}
	second := &struct{}{}

	require.True(t, bus.Register(EVENT_CODE_RESIZED, first, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		got = append(got, data.Data.U32[0], data.Data.U32[1])
		return false
	}))
	require.False(t, bus.Register(EVENT_CODE_RESIZED, first, nil), "duplicate listener must be rejected")

	handled := 0
	require.True(t, bus.Register(EVENT_CODE_RESIZED, second, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		handled++
		return true
	}))

	ctx := EventContext{}
	ctx.Data.U32[0] = 800
	ctx.Data.U32[1] = 600
	require.True(t, bus.Fire(EVENT_CODE_RESIZED, nil, ctx))
	require.Equal(t, []uint32{800, 600}, got)
	require.Equal(t, 1, handled)

	require.False(t, bus.Fire(EVENT_CODE_KEY_PRESSED, nil, ctx), "no listener for code")

	require.True(t, bus.Unregister(EVENT_CODE_RESIZED, second))
	require.False(t, bus.Unregister(EVENT_CODE_RESIZED, second))
	require.False(t, bus.Fire(EVENT_CODE_RESIZED, nil, ctx))
}
