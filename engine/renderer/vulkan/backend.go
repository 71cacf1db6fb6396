package vulkan

import (
	"context"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/vkcube/engine/assets"
	"github.com/spaghettifunk/vkcube/engine/assets/loaders"
	"github.com/spaghettifunk/vkcube/engine/core"
	"github.com/spaghettifunk/vkcube/engine/renderer/components"
)

type RendererConfig struct {
	ApplicationName string
	Validation      bool
	ClearColor      [4]float32
	// Degrees per rendered frame.
	RotationStep float32

	VertexShaderPath   string
	FragmentShaderPath string
	TexturePath        string
}

type VulkanRenderer struct {
	window  Window
	config  RendererConfig
	context *VulkanContext

	// Kept so the pipeline can be rebuilt when the swapchain format changes.
	shaders assets.ShaderPair
	changes <-chan assets.AssetChange

	camera *components.Camera
	angle  float32
	paused bool

	SessionID   string
	FrameNumber uint64
}

func New(window Window, config RendererConfig) *VulkanRenderer {
	if config.RotationStep == 0 {
		config.RotationStep = DefaultRotationStep
	}
	session := uuid.NewString()
	return &VulkanRenderer{
		window: window,
		config: config,
		camera: components.NewCamera(),
		context: &VulkanContext{
			Allocator: nil,
			Log:       core.NewTaggedLogger("session", session),
		},
		SessionID: session,
	}
}

// WatchAssets makes the renderer apply shader and texture changes between frames.
func (vr *VulkanRenderer) WatchAssets(changes <-chan assets.AssetChange) {
	vr.changes = changes
}

/**
 * @brief Brings up every Vulkan object in dependency order. On error the
 * partially built state is left in place for Shutdown to release.
 */
func (vr *VulkanRenderer) Initialize(ctx context.Context) error {
	log := vr.context.Log

	startup, err := assets.LoadStartupAssets(ctx, vr.config.VertexShaderPath, vr.config.FragmentShaderPath, vr.config.TexturePath)
	if err != nil {
		return err
	}
	vr.shaders = startup.Shaders

	if err := vr.createInstance(); err != nil {
		return errors.Wrap(err, "creating instance")
	}
	if err := DeviceCreate(vr.context); err != nil {
		return errors.Wrap(err, "creating device")
	}

	width, height, ok := waitForDrawableSize(vr.window)
	if !ok {
		return core.ErrWindowClosing
	}
	swapchain, err := SwapchainCreate(vr.context, width, height)
	if err != nil {
		return errors.Wrap(err, "creating swapchain")
	}
	vr.context.Swapchain = swapchain

	descriptors, err := DescriptorsCreate(vr.context)
	if err != nil {
		return errors.Wrap(err, "creating descriptors")
	}
	vr.context.Descriptors = descriptors

	if err := vr.createRenderpassAndPipeline(); err != nil {
		return err
	}
	if err := vr.context.Swapchain.RegenerateFramebuffers(vr.context, vr.context.MainRenderpass); err != nil {
		return errors.Wrap(err, "creating framebuffers")
	}

	vertices, indices := CubeGeometry()
	if err := GeometryUpload(vr.context, vertices, indices); err != nil {
		return errors.Wrap(err, "uploading geometry")
	}

	texture, err := TextureCreate(vr.context, startup.Texture)
	if err != nil {
		return errors.Wrap(err, "creating texture")
	}
	vr.context.Texture = texture

	for i := range vr.context.Frames {
		slot, err := FrameSlotCreate(vr.context)
		if err != nil {
			return errors.Wrapf(err, "creating frame slot %d", i)
		}
		vr.context.Frames[i] = slot
	}
	vr.context.Descriptors.WriteAll(vr.context)
	vr.context.CurrentFrame = 0

	log.Info("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createRenderpassAndPipeline() error {
	renderpass, err := RenderpassCreate(vr.context, vr.context.Swapchain.ImageFormat.Format, vr.config.ClearColor, 1.0, 0)
	if err != nil {
		return errors.Wrap(err, "creating render pass")
	}
	pipeline, err := CubePipelineCreate(vr.context, renderpass, vr.shaders)
	if err != nil {
		renderpass.RenderpassDestroy(vr.context)
		return errors.Wrap(err, "creating pipeline")
	}
	vr.context.MainRenderpass = renderpass
	vr.context.Pipeline = pipeline
	return nil
}

func (vr *VulkanRenderer) destroyRenderpassAndPipeline() {
	if vr.context.Pipeline != nil {
		vr.context.Pipeline.Destroy(vr.context)
		vr.context.Pipeline = nil
	}
	if vr.context.MainRenderpass != nil {
		vr.context.MainRenderpass.RenderpassDestroy(vr.context)
		vr.context.MainRenderpass = nil
	}
}

// Shutdown destroys in the opposite order of creation. It tolerates a partial Initialize.
func (vr *VulkanRenderer) Shutdown() error {
	vc := vr.context
	if vc.Device != nil && vc.Device.LogicalDevice != nil {
		if err := vr.WaitIdle(); err != nil {
			vc.Log.Warn("device wait idle failed during shutdown: %v", err)
		}

		for i, slot := range vc.Frames {
			if slot != nil {
				slot.Destroy(vc)
				vc.Frames[i] = nil
			}
		}
		if vc.Texture != nil {
			vc.Texture.Destroy(vc)
			vc.Texture = nil
		}
		GeometryDestroy(vc)
		vr.destroyRenderpassAndPipeline()
		if vc.Descriptors != nil {
			vc.Descriptors.Destroy(vc)
			vc.Descriptors = nil
		}
		if vc.Swapchain != nil {
			vc.Swapchain.SwapchainDestroy(vc)
			vc.Swapchain = nil
		}
	}

	vc.Log.Debug("Destroying Vulkan device...")
	DeviceDestroy(vc)

	vc.Log.Debug("Destroying Vulkan instance...")
	vr.destroyInstance()
	return nil
}

// Resized marks the swapchain stale. Recreation happens after the next present.
func (vr *VulkanRenderer) Resized(width, height int) {
	vr.context.FramebufferResized = true
	vr.context.Log.Debug("Vulkan renderer backend->resized: w/h: %d/%d", width, height)
}

func (vr *VulkanRenderer) WaitIdle() error {
	if vr.context.Device == nil || vr.context.Device.LogicalDevice == nil {
		return nil
	}
	return vkCheck("vkDeviceWaitIdle", vk.DeviceWaitIdle(vr.context.Device.LogicalDevice))
}

func (vr *VulkanRenderer) TogglePause() {
	vr.paused = !vr.paused
	vr.context.Log.Info("rotation paused: %t", vr.paused)
}

func (vr *VulkanRenderer) ResetRotation() {
	vr.angle = 0
}

// Angle is the current model rotation in degrees.
func (vr *VulkanRenderer) Angle() float32 {
	return vr.angle
}

/**
 * @brief Renders one frame with the current frame slot. The slot index only
 * advances when an image was acquired and submitted.
 */
func (vr *VulkanRenderer) DrawFrame() error {
	vr.applyAssetChanges()

	vc := vr.context
	slot := vc.CurrentSlot()

	// Wait for the execution of the current frame to complete. The fence being free will allow this one to move on.
	if err := slot.InFlight.FenceWait(vc); err != nil {
		return vr.frameFailed(err)
	}

	if err := slot.transition(FRAME_STATE_ACQUIRING); err != nil {
		return err
	}
	imageIndex, result := vc.Swapchain.SwapchainAcquireNextImageIndex(vc, slot.ImageAvailable)
	acquired := acquireOutcome(result)
	switch acquired {
	case ACQUIRE_OUT_OF_DATE:
		// Trigger swapchain recreation, then boot out of the render loop.
		if err := slot.transition(FRAME_STATE_IDLE); err != nil {
			return err
		}
		return vr.recreateSwapchain()
	case ACQUIRE_FAILED:
		return vr.frameFailed(vkCheck("vkAcquireNextImageKHR", result))
	}

	// Only reset the fence once work is certain to be submitted with it.
	if err := slot.InFlight.FenceReset(vc); err != nil {
		return err
	}

	ubo := NewUniformBufferObject(vr.camera, vr.angle, vc.Swapchain.Extent)
	if err := slot.UniformBuffer.LoadData(vc, ubo.Bytes()); err != nil {
		return err
	}

	if err := slot.transition(FRAME_STATE_RECORDING); err != nil {
		return err
	}
	if err := vr.recordCommands(slot, imageIndex); err != nil {
		return err
	}

	if err := vr.submit(slot); err != nil {
		return err
	}
	if err := slot.transition(FRAME_STATE_SUBMITTED); err != nil {
		return err
	}

	// Give the image back to the swapchain.
	result = vc.Swapchain.SwapchainPresent(vc, slot.RenderFinished, imageIndex)
	if err := slot.transition(FRAME_STATE_PRESENTED); err != nil {
		return err
	}

	recreate, presentErr := presentOutcome(result, acquired == ACQUIRE_SUBOPTIMAL, vc.FramebufferResized)
	if presentErr != nil {
		if err := slot.transition(FRAME_STATE_IDLE); err != nil {
			return err
		}
		return vr.frameFailed(presentErr)
	}
	var recreateErr error
	if recreate {
		recreateErr = vr.recreateSwapchain()
	}

	if err := slot.transition(FRAME_STATE_IDLE); err != nil {
		return err
	}
	if !vr.paused {
		vr.angle = advanceAngle(vr.angle, vr.config.RotationStep)
	}
	vc.CurrentFrame = NextFrameIndex(vc.CurrentFrame)
	vr.FrameNumber++
	return recreateErr
}

// frameFailed logs the unrecoverable results before handing err back.
func (vr *VulkanRenderer) frameFailed(err error) error {
	switch {
	case IsResult(err, vk.ErrorDeviceLost):
		vr.context.Log.Error("device lost after %d frames", vr.FrameNumber)
	case IsResult(err, vk.ErrorSurfaceLost):
		vr.context.Log.Error("surface lost after %d frames", vr.FrameNumber)
	}
	return err
}

// advanceAngle keeps the angle within [0, 360).
func advanceAngle(angle, step float32) float32 {
	angle += step
	for angle >= 360 {
		angle -= 360
	}
	for angle < 0 {
		angle += 360
	}
	return angle
}

func (vr *VulkanRenderer) recordCommands(slot *FrameSlot, imageIndex uint32) error {
	vc := vr.context
	commandBuffer := slot.CommandBuffer
	extent := vc.Swapchain.Extent

	// Begin recording commands.
	if err := commandBuffer.Reset(); err != nil {
		return err
	}
	if err := commandBuffer.Begin(false, false, false); err != nil {
		return err
	}

	vc.MainRenderpass.RenderpassBegin(commandBuffer, vc.Swapchain.Framebuffers[imageIndex].Handle, extent)
	vc.Pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)

	// Dynamic state
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})

	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{vc.VertexBuffer.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(commandBuffer.Handle, vc.IndexBuffer.Handle, 0, vk.IndexTypeUint16)
	vk.CmdBindDescriptorSets(commandBuffer.Handle, vk.PipelineBindPointGraphics, vc.Pipeline.PipelineLayout,
		0, 1, []vk.DescriptorSet{slot.DescriptorSet}, 0, nil)
	vk.CmdDrawIndexed(commandBuffer.Handle, vc.IndexCount, 1, 0, 0, 0)

	vc.MainRenderpass.RenderpassEnd(commandBuffer)
	return commandBuffer.End()
}

func (vr *VulkanRenderer) submit(slot *FrameSlot) error {
	submitInfo := vk.SubmitInfo{
		SType: vk.StructureTypeSubmitInfo,
		// Wait semaphore ensures that the operation cannot begin until the image is available.
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.ImageAvailable},
		// Colour attachment writes wait for the semaphore, earlier stages may run ahead.
		PWaitDstStageMask:  []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{slot.CommandBuffer.Handle},
		// The semaphore(s) to be signaled when the queue is complete.
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{slot.RenderFinished},
	}
	if err := vkCheck("vkQueueSubmit", vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, slot.InFlight.Handle)); err != nil {
		return err
	}
	slot.CommandBuffer.UpdateSubmitted()
	return nil
}

/**
 * @brief Rebuilds the swapchain and everything sized by it. Blocks while the
 * window is minimized. The render pass and pipeline are only rebuilt when the
 * surface format changed.
 */
func (vr *VulkanRenderer) recreateSwapchain() error {
	vc := vr.context

	// Detect if the window is too small to be drawn to
	width, height, ok := waitForDrawableSize(vr.window)
	if !ok {
		// Closing while minimized. The run loop sees ShouldClose next and the old swapchain is torn down at shutdown.
		vc.Log.Debug("window closing, swapchain recreation skipped")
		return nil
	}

	// Wait for any operations to complete.
	if err := vr.WaitIdle(); err != nil {
		return err
	}

	vc.Swapchain.SwapchainDestroy(vc)
	vc.Swapchain = nil

	swapchain, err := SwapchainCreate(vc, width, height)
	if err != nil {
		return errors.Wrap(err, "recreating swapchain")
	}
	vc.Swapchain = swapchain

	renderpass := vc.MainRenderpass
	if renderpass.ColorFormat != swapchain.ImageFormat.Format || renderpass.DepthFormat != vc.Device.DepthFormat {
		vc.Log.Info("surface format changed, rebuilding render pass and pipeline")
		vr.destroyRenderpassAndPipeline()
		if err := vr.createRenderpassAndPipeline(); err != nil {
			return err
		}
	}

	if err := swapchain.RegenerateFramebuffers(vc, vc.MainRenderpass); err != nil {
		return err
	}
	vc.FramebufferResized = false
	vc.Log.Debug("swapchain recreated at %dx%d (frame %d)", swapchain.Extent.Width, swapchain.Extent.Height, vr.FrameNumber)
	return nil
}

/**
 * @brief Drains pending asset notifications without blocking. Repeated
 * changes to the same kind of asset collapse into one reload. A failed
 * reload is logged and the current objects stay in use.
 */
func (vr *VulkanRenderer) applyAssetChanges() {
	if vr.changes == nil {
		return
	}
	var reloadShaders, reloadTexture bool
drain:
	for {
		select {
		case change, ok := <-vr.changes:
			if !ok {
				vr.changes = nil
				break drain
			}
			switch change.Type {
			case assets.ResourceTypeShader:
				reloadShaders = true
			case assets.ResourceTypeImage:
				reloadTexture = true
			}
		default:
			break drain
		}
	}

	if reloadShaders {
		if err := vr.reloadShaders(); err != nil {
			vr.context.Log.Error("shader reload failed, keeping previous pipeline: %v", err)
		}
	}
	if reloadTexture {
		if err := vr.reloadTexture(); err != nil {
			vr.context.Log.Error("texture reload failed, keeping previous texture: %v", err)
		}
	}
}

func (vr *VulkanRenderer) reloadShaders() error {
	shaders, err := assets.LoadShaders(context.Background(), vr.config.VertexShaderPath, vr.config.FragmentShaderPath)
	if err != nil {
		return err
	}
	if err := vr.WaitIdle(); err != nil {
		return err
	}
	pipeline, err := CubePipelineCreate(vr.context, vr.context.MainRenderpass, shaders)
	if err != nil {
		return err
	}
	vr.context.Pipeline.Destroy(vr.context)
	vr.context.Pipeline = pipeline
	vr.shaders = shaders
	vr.context.Log.Info("shaders reloaded")
	return nil
}

func (vr *VulkanRenderer) reloadTexture() error {
	pixels, err := loaders.LoadTexture(vr.config.TexturePath)
	if err != nil {
		return err
	}
	if err := vr.WaitIdle(); err != nil {
		return err
	}
	texture, err := TextureCreate(vr.context, pixels)
	if err != nil {
		return err
	}
	vr.context.Texture.Destroy(vr.context)
	vr.context.Texture = texture
	vr.context.Descriptors.WriteAll(vr.context)
	vr.context.Log.Info("texture reloaded from %s", vr.config.TexturePath)
	return nil
}
