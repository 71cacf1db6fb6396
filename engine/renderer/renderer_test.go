package renderer

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	initErr  error
	drawErr  error
	draws    int
	resizes  [][2]int
	paused   bool
	resets   int
	idles    int
	shutdown bool
}

func (f *fakeBackend) Initialize(ctx context.Context) error { return f.initErr }
func (f *fakeBackend) Shutdown() error                      { f.shutdown = true; return nil }
func (f *fakeBackend) Resized(w, h int)                     { f.resizes = append(f.resizes, [2]int{w, h}) }
func (f *fakeBackend) DrawFrame() error                     { f.draws++; return f.drawErr }
func (f *fakeBackend) WaitIdle() error                      { f.idles++; return nil }
func (f *fakeBackend) TogglePause()                         { f.paused = !f.paused }
func (f *fakeBackend) ResetRotation()                       { f.resets++ }

func TestRendererForwardsToBackend(t *testing.T) {
	backend := &fakeBackend{}
	r := New(Vulkan, backend)
	require.NoError(t, r.Initialize(context.Background()))

	require.NoError(t, r.DrawFrame(&RenderPacket{FrameNumber: 0}))
	require.NoError(t, r.DrawFrame(&RenderPacket{FrameNumber: 1}))
	assert.Equal(t, 2, backend.draws)

	r.OnResize(1024, 768)
	assert.Equal(t, [][2]int{{1024, 768}}, backend.resizes)

	r.TogglePause()
	assert.True(t, backend.paused)
	r.ResetRotation()
	assert.Equal(t, 1, backend.resets)

	require.NoError(t, r.WaitIdle())
	require.NoError(t, r.Shutdown())
	assert.True(t, backend.shutdown)
}

func TestRendererDrawBeforeInitialize(t *testing.T) {
	backend := &fakeBackend{}
	r := New(Vulkan, backend)
	assert.Error(t, r.DrawFrame(&RenderPacket{}))
	assert.Zero(t, backend.draws)
}

func TestRendererInitializeError(t *testing.T) {
	cause := errors.New("no device")
	r := New(Vulkan, &fakeBackend{initErr: cause})

	err := r.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "vulkan")
	assert.Error(t, r.DrawFrame(&RenderPacket{}))
}

func TestRendererDrawError(t *testing.T) {
	cause := errors.New("device lost")
	backend := &fakeBackend{drawErr: cause}
	r := New(Vulkan, backend)
	require.NoError(t, r.Initialize(context.Background()))
	assert.ErrorIs(t, r.DrawFrame(&RenderPacket{FrameNumber: 7}), cause)
}
