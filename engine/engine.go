package engine

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkcube/engine/core"
	"github.com/spaghettifunk/vkcube/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Window is the part of the platform layer the main loop drives.
type Window interface {
	ShouldClose() bool
	RequestClose()
	PollEvents()
}

type Engine struct {
	currentStage Stage
	window       Window
	events       *core.EventBus
	renderer     *renderer.Renderer
	width        uint32
	height       uint32
	clock        *core.Clock
	metrics      *core.FrameMetrics
	lastTime     float64
	frameNumber  uint64
}

func New(config *ApplicationConfig, window Window, events *core.EventBus, backend renderer.RendererBackend) *Engine {
	return &Engine{
		currentStage: EngineStageUninitialized,
		window:       window,
		events:       events,
		renderer:     renderer.New(renderer.Vulkan, backend),
		width:        config.Window.StartWidth,
		height:       config.Window.StartHeight,
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
	}
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) FrameNumber() uint64 {
	return e.frameNumber
}

/**
 * @brief Registers the engine's event listeners and brings up the renderer.
 * Shutdown must be called even when this fails.
 */
func (e *Engine) Initialize(ctx context.Context) error {
	e.currentStage = EngineStageInitializing

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.renderer.Initialize(ctx); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

/**
 * @brief Pumps window events and draws until the window is asked to close or
 * a frame fails. The device is drained before returning either way.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return errors.Newf("engine cannot run from stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var runErr error
	for !e.window.ShouldClose() {
		e.window.PollEvents()

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		packet := &renderer.RenderPacket{
			DeltaTime:   delta,
			FrameNumber: e.frameNumber,
		}
		if err := e.renderer.DrawFrame(packet); err != nil {
			core.LogError("Frame failed, shutting down.")
			runErr = err
			break
		}
		e.frameNumber++

		if e.metrics.Update(delta) {
			core.LogDebug("FPS: %.0f (%.2fms avg)", e.metrics.FPS(), e.metrics.FrameTime())
		}
		e.lastTime = currentTime
	}

	// Let in-flight frames finish before anything gets destroyed.
	return errors.CombineErrors(runErr, e.renderer.WaitIdle())
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown

	e.events.Unregister(core.EVENT_CODE_APPLICATION_QUIT, e)
	e.events.Unregister(core.EVENT_CODE_KEY_PRESSED, e)
	e.events.Unregister(core.EVENT_CODE_KEY_RELEASED, e)
	e.events.Unregister(core.EVENT_CODE_RESIZED, e)

	err := e.renderer.Shutdown()
	e.currentStage = EngineStageUninitialized
	return err
}

func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.window.RequestClose()
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	keyCode := core.KeyCode(data.Data.I32[0])

	if code == core.EVENT_CODE_KEY_RELEASED {
		core.LogDebug("key 0x%02x released", keyCode)
		return false
	}

	switch keyCode {
	case core.KEY_ESCAPE, core.KEY_Q:
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		return true
	case core.KEY_SPACE:
		e.renderer.TogglePause()
		return true
	case core.KEY_R:
		e.renderer.ResetRotation()
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	width := data.Data.U32[0]
	height := data.Data.U32[1]

	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, rendering waits until it is restored.")
	} else {
		core.LogDebug("Window resize: %d, %d", width, height)
	}
	e.renderer.OnResize(width, height)
	return true
}
