package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkcube/engine/core"
)

// VulkanContext owns every Vulkan object the renderer creates.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	// Only set when validation is enabled.
	debugCallback vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass
	Pipeline       *VulkanPipeline
	Descriptors    *VulkanDescriptors

	VertexBuffer *VulkanBuffer
	IndexBuffer  *VulkanBuffer
	IndexCount   uint32
	Texture      *VulkanTexture

	Frames       [MaxFramesInFlight]*FrameSlot
	CurrentFrame uint32

	// Set by the window's framebuffer-size callback, cleared after recreation.
	FramebufferResized bool

	Log *core.TaggedLogger
}

func (vc *VulkanContext) CurrentSlot() *FrameSlot {
	return vc.Frames[vc.CurrentFrame]
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has all propertyFlags.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	return findMemoryType(vc.Device.Memory, typeFilter, propertyFlags)
}

func findMemoryType(memoryProperties vk.PhysicalDeviceMemoryProperties, typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		// Check each memory type to see if its bit is set to 1.
		if typeFilter&(1<<i) != 0 && memoryProperties.MemoryTypes[i].PropertyFlags&propertyFlags == propertyFlags {
			return i, nil
		}
	}
	return 0, errors.Wrapf(core.ErrNoMemoryType, "filter 0x%x flags 0x%x", typeFilter, propertyFlags)
}
