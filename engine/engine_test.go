package engine

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkcube/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	polls     int
	maxPolls  int
	requested bool
}

func (w *fakeWindow) ShouldClose() bool {
	return w.requested || (w.maxPolls > 0 && w.polls >= w.maxPolls)
}
func (w *fakeWindow) RequestClose() { w.requested = true }
func (w *fakeWindow) PollEvents()   { w.polls++ }

type fakeBackend struct {
	initErr   error
	drawErr   error
	draws     int
	resizes   [][2]int
	paused    bool
	resets    int
	idles     int
	shutdowns int
}

func (f *fakeBackend) Initialize(ctx context.Context) error { return f.initErr }
func (f *fakeBackend) Shutdown() error                      { f.shutdowns++; return nil }
func (f *fakeBackend) Resized(w, h int)                     { f.resizes = append(f.resizes, [2]int{w, h}) }
func (f *fakeBackend) DrawFrame() error                     { f.draws++; return f.drawErr }
func (f *fakeBackend) WaitIdle() error                      { f.idles++; return nil }
func (f *fakeBackend) TogglePause()                         { f.paused = !f.paused }
func (f *fakeBackend) ResetRotation()                       { f.resets++ }

func newTestEngine(t *testing.T, window *fakeWindow, backend *fakeBackend) (*Engine, *core.EventBus) {
	t.Helper()
	events := core.NewEventBus()
	e := New(DefaultConfig(), window, events, backend)
	require.NoError(t, e.Initialize(context.Background()))
	assert.Equal(t, EngineStageInitialized, e.Stage())
	return e, events
}

func keyPress(key core.KeyCode) core.EventContext {
	ctx := core.EventContext{}
	ctx.Data.I32[0] = int32(key)
	return ctx
}

func TestRunDrawsUntilWindowCloses(t *testing.T) {
	window := &fakeWindow{maxPolls: 3}
	backend := &fakeBackend{}
	e, _ := newTestEngine(t, window, backend)

	require.NoError(t, e.Run())
	assert.Equal(t, 3, backend.draws)
	assert.Equal(t, uint64(3), e.FrameNumber())
	assert.Equal(t, 1, backend.idles, "device must be drained when the loop ends")

	require.NoError(t, e.Shutdown())
	assert.Equal(t, 1, backend.shutdowns)
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}

func TestRunStopsOnFrameError(t *testing.T) {
	cause := errors.New("device lost")
	window := &fakeWindow{maxPolls: 10}
	backend := &fakeBackend{drawErr: cause}
	e, _ := newTestEngine(t, window, backend)

	err := e.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, backend.draws)
	assert.Equal(t, 1, backend.idles)
}

func TestRunRequiresInitialize(t *testing.T) {
	e := New(DefaultConfig(), &fakeWindow{maxPolls: 1}, core.NewEventBus(), &fakeBackend{})
	assert.Error(t, e.Run())
}

func TestInitializeErrorStillShutsDown(t *testing.T) {
	backend := &fakeBackend{initErr: errors.New("no vulkan")}
	e := New(DefaultConfig(), &fakeWindow{}, core.NewEventBus(), backend)
	require.Error(t, e.Initialize(context.Background()))
	require.NoError(t, e.Shutdown())
	assert.Equal(t, 1, backend.shutdowns)
}

func TestQuitKeysCloseWindow(t *testing.T) {
	for _, key := range []core.KeyCode{core.KEY_ESCAPE, core.KEY_Q} {
		window := &fakeWindow{}
		_, events := newTestEngine(t, window, &fakeBackend{})

		assert.True(t, events.Fire(core.EVENT_CODE_KEY_PRESSED, nil, keyPress(key)))
		assert.True(t, window.requested, "key 0x%02x", key)
	}
}

func TestReleasedKeysAreIgnored(t *testing.T) {
	window := &fakeWindow{}
	_, events := newTestEngine(t, window, &fakeBackend{})

	assert.False(t, events.Fire(core.EVENT_CODE_KEY_RELEASED, nil, keyPress(core.KEY_ESCAPE)))
	assert.False(t, window.requested)
}

func TestPauseAndResetKeys(t *testing.T) {
	backend := &fakeBackend{}
	_, events := newTestEngine(t, &fakeWindow{}, backend)

	events.Fire(core.EVENT_CODE_KEY_PRESSED, nil, keyPress(core.KEY_SPACE))
	assert.True(t, backend.paused)
	events.Fire(core.EVENT_CODE_KEY_PRESSED, nil, keyPress(core.KEY_SPACE))
	assert.False(t, backend.paused)

	events.Fire(core.EVENT_CODE_KEY_PRESSED, nil, keyPress(core.KEY_R))
	assert.Equal(t, 1, backend.resets)
}

func TestResizeMarksRendererStale(t *testing.T) {
	backend := &fakeBackend{}
	e, events := newTestEngine(t, &fakeWindow{}, backend)

	resize := func(w, h uint32) bool {
		ctx := core.EventContext{}
		ctx.Data.U32[0] = w
		ctx.Data.U32[1] = h
		return events.Fire(core.EVENT_CODE_RESIZED, nil, ctx)
	}

	// Same size as the window was created with.
	assert.False(t, resize(DefaultWindowWidth, DefaultWindowHeight))
	assert.Empty(t, backend.resizes)

	assert.True(t, resize(1024, 768))
	assert.True(t, resize(0, 0))
	assert.Equal(t, [][2]int{{1024, 768}, {0, 0}}, backend.resizes)

	w, h := e.GetFramebufferSize()
	assert.Equal(t, uint32(0), w)
	assert.Equal(t, uint32(0), h)
}

func TestShutdownUnregistersListeners(t *testing.T) {
	backend := &fakeBackend{}
	e, events := newTestEngine(t, &fakeWindow{}, backend)
	require.NoError(t, e.Shutdown())

	assert.False(t, events.Fire(core.EVENT_CODE_KEY_PRESSED, nil, keyPress(core.KEY_SPACE)))
	assert.False(t, backend.paused)
}
