package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

type FrameState int

const (
	FRAME_STATE_IDLE FrameState = iota
	FRAME_STATE_ACQUIRING
	FRAME_STATE_RECORDING
	FRAME_STATE_SUBMITTED
	FRAME_STATE_PRESENTED
)

func (s FrameState) String() string {
	switch s {
	case FRAME_STATE_IDLE:
		return "idle"
	case FRAME_STATE_ACQUIRING:
		return "acquiring"
	case FRAME_STATE_RECORDING:
		return "recording"
	case FRAME_STATE_SUBMITTED:
		return "submitted"
	case FRAME_STATE_PRESENTED:
		return "presented"
	default:
		return "unknown"
	}
}

// An acquire that finds the swapchain out of date drops the slot back to idle.
var frameTransitions = map[FrameState][]FrameState{
	FRAME_STATE_IDLE:      {FRAME_STATE_ACQUIRING},
	FRAME_STATE_ACQUIRING: {FRAME_STATE_RECORDING, FRAME_STATE_IDLE},
	FRAME_STATE_RECORDING: {FRAME_STATE_SUBMITTED},
	FRAME_STATE_SUBMITTED: {FRAME_STATE_PRESENTED},
	FRAME_STATE_PRESENTED: {FRAME_STATE_IDLE},
}

func canTransition(from, to FrameState) bool {
	for _, next := range frameTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextFrameIndex advances the frame-in-flight slot.
func NextFrameIndex(current uint32) uint32 {
	return (current + 1) % MaxFramesInFlight
}

type AcquireOutcome int

const (
	ACQUIRE_OK AcquireOutcome = iota
	// The image is usable but the swapchain should be rebuilt after present.
	ACQUIRE_SUBOPTIMAL
	// Nothing was acquired. The swapchain must be rebuilt and the slot stays put.
	ACQUIRE_OUT_OF_DATE
	ACQUIRE_FAILED
)

func acquireOutcome(result vk.Result) AcquireOutcome {
	switch result {
	case vk.Success:
		return ACQUIRE_OK
	case vk.Suboptimal:
		return ACQUIRE_SUBOPTIMAL
	case vk.ErrorOutOfDate:
		return ACQUIRE_OUT_OF_DATE
	default:
		return ACQUIRE_FAILED
	}
}

// Renders reports whether an image was acquired. The slot fence may only be reset when it was.
func (o AcquireOutcome) Renders() bool {
	return o == ACQUIRE_OK || o == ACQUIRE_SUBOPTIMAL
}

/**
 * @brief Decides what follows a present. A stale or suboptimal swapchain, a
 * suboptimal acquire or a pending resize asks for recreation. Any other
 * failure is returned, even when a resize is pending.
 */
func presentOutcome(result vk.Result, acquireSuboptimal, resized bool) (recreate bool, err error) {
	switch result {
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return true, nil
	case vk.Success:
		return acquireSuboptimal || resized, nil
	default:
		return false, vkCheck("vkQueuePresentKHR", result)
	}
}

/**
 * @brief Per frame-in-flight resources. The slot may only be re-recorded
 * after its fence has signaled.
 */
type FrameSlot struct {
	CommandBuffer  *VulkanCommandBuffer
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *VulkanFence
	UniformBuffer  *VulkanBuffer
	DescriptorSet  vk.DescriptorSet

	State FrameState
}

func (f *FrameSlot) transition(to FrameState) error {
	if !canTransition(f.State, to) {
		return errors.Newf("invalid frame transition %s -> %s", f.State, to)
	}
	f.State = to
	return nil
}

func createSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vkCheck("vkCreateSemaphore", vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &semaphore)); err != nil {
		return vk.NullSemaphore, err
	}
	return semaphore, nil
}

func FrameSlotCreate(context *VulkanContext) (*FrameSlot, error) {
	slot := &FrameSlot{State: FRAME_STATE_IDLE}

	cb, err := NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true)
	if err != nil {
		return nil, err
	}
	slot.CommandBuffer = cb

	if slot.ImageAvailable, err = createSemaphore(context); err != nil {
		slot.Destroy(context)
		return nil, err
	}
	if slot.RenderFinished, err = createSemaphore(context); err != nil {
		slot.Destroy(context)
		return nil, err
	}

	// Create the fence in a signaled state, indicating that the first frame has already been "rendered".
	// This will prevent the application from waiting indefinitely for the first frame to render since it
	// cannot be rendered until a frame is "rendered" before it.
	if slot.InFlight, err = NewFence(context, true); err != nil {
		slot.Destroy(context)
		return nil, err
	}

	if slot.UniformBuffer, err = UniformBufferCreate(context); err != nil {
		slot.Destroy(context)
		return nil, err
	}
	return slot, nil
}

func (f *FrameSlot) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if f.UniformBuffer != nil {
		f.UniformBuffer.Destroy(context)
		f.UniformBuffer = nil
	}
	if f.InFlight != nil {
		f.InFlight.FenceDestroy(context)
		f.InFlight = nil
	}
	if f.RenderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(device, f.RenderFinished, context.Allocator)
		f.RenderFinished = vk.NullSemaphore
	}
	if f.ImageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(device, f.ImageAvailable, context.Allocator)
		f.ImageAvailable = vk.NullSemaphore
	}
	if f.CommandBuffer != nil && f.CommandBuffer.Handle != nil {
		f.CommandBuffer.Free(context, context.Device.GraphicsCommandPool)
	}
	f.CommandBuffer = nil
	f.DescriptorSet = nil
	f.State = FRAME_STATE_IDLE
}
