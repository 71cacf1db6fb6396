package vulkan

import vk "github.com/goki/vulkan"

const (
	// Number of frames the CPU may record ahead of the GPU.
	MaxFramesInFlight = 2

	EngineName = "vkcube"

	ValidationLayerName = "VK_LAYER_KHRONOS_validation"

	portabilitySubsetExtensionName      = "VK_KHR_portability_subset"
	portabilityEnumerationExtensionName = "VK_KHR_portability_enumeration"
	physicalDeviceProperties2Extension  = "VK_KHR_get_physical_device_properties2"
	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	instanceCreateEnumeratePortabilityBit = 0x00000001

	// Texture images are always uploaded as 8-bit sRGB RGBA.
	TextureFormat = vk.FormatR8g8b8a8Srgb

	// The model turns about Z by this many degrees per rendered frame unless configured otherwise.
	DefaultRotationStep float32 = 0.5
)

/** @brief Depth formats in order of preference. */
var depthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}
