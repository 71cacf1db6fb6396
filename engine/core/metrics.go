package core

import "github.com/spaghettifunk/vkcube/engine/containers"

const AVG_COUNT = 30

// FrameMetrics keeps a rolling frame-time average and a once-per-second FPS count.
type FrameMetrics struct {
	msTimes            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{
		msTimes: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update records one frame. It reports true when a new FPS value was published.
func (m *FrameMetrics) Update(frameElapsedTime float64) bool {
	frameMS := frameElapsedTime * 1000.0
	if m.msTimes.IsFull() {
		_, _ = m.msTimes.Dequeue()
	}
	_ = m.msTimes.Enqueue(frameMS)

	sum := 0.0
	m.msTimes.Each(func(ms float64) { sum += ms })
	m.msAvg = sum / float64(m.msTimes.Len())

	// Count all frames, including this one.
	m.frames++

	published := false
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
		published = true
	}
	return published
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average over the last AVG_COUNT frames, in milliseconds.
func (m *FrameMetrics) FrameTime() float64 {
	return m.msAvg
}
