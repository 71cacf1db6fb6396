package renderer

import "context"

// RendererBackend is implemented by the graphics API specific renderer.
type RendererBackend interface {
	Initialize(ctx context.Context) error
	Shutdown() error
	// Resized only marks the swapchain stale, recreation happens inside DrawFrame.
	Resized(width, height int)
	DrawFrame() error
	WaitIdle() error
	TogglePause()
	ResetRotation()
}
