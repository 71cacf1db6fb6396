package renderer

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkcube/engine/core"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
)

func (t RendererType) String() string {
	switch t {
	case Vulkan:
		return "vulkan"
	}
	return "unknown"
}

// RenderPacket carries the per-frame data handed from the engine to the renderer.
type RenderPacket struct {
	DeltaTime   float64
	FrameNumber uint64
}

type Renderer struct {
	backend      RendererBackend
	rendererType RendererType
	initialized  bool
}

func New(rendererType RendererType, backend RendererBackend) *Renderer {
	return &Renderer{
		backend:      backend,
		rendererType: rendererType,
	}
}

func (r *Renderer) Initialize(ctx context.Context) error {
	core.LogInfo("initializing %s renderer backend", r.rendererType)
	if err := r.backend.Initialize(ctx); err != nil {
		return errors.Wrapf(err, "initializing %s renderer", r.rendererType)
	}
	r.initialized = true
	return nil
}

// Shutdown also releases whatever a failed Initialize managed to create.
func (r *Renderer) Shutdown() error {
	r.initialized = false
	return r.backend.Shutdown()
}

func (r *Renderer) OnResize(width, height uint32) {
	r.backend.Resized(int(width), int(height))
}

func (r *Renderer) DrawFrame(packet *RenderPacket) error {
	if !r.initialized {
		return errors.New("renderer is not initialized")
	}
	if err := r.backend.DrawFrame(); err != nil {
		core.LogError("frame %d failed: %v", packet.FrameNumber, err)
		return err
	}
	return nil
}

// WaitIdle blocks until the GPU has finished all submitted work.
func (r *Renderer) WaitIdle() error {
	return r.backend.WaitIdle()
}

func (r *Renderer) TogglePause() {
	r.backend.TogglePause()
}

func (r *Renderer) ResetRotation() {
	r.backend.ResetRotation()
}
