package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkcube/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   VulkanSwapchainSupportInfo
	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
}

type VulkanPhysicalDeviceRequirements struct {
	DeviceExtensionNames []string
	SamplerAnisotropy    bool
	DiscreteGPU          bool
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex uint32
	PresentFamilyIndex  uint32
}

type queueFamilyCaps struct {
	Graphics bool
	Present  bool
}

/**
 * @brief Picks graphics and present family indices. A family that can do both
 * is preferred so that the swapchain images need no sharing. Otherwise the
 * first family of each kind is used.
 */
func pickQueueFamilies(families []queueFamilyCaps) (VulkanPhysicalDeviceQueueFamilyInfo, bool) {
	info := VulkanPhysicalDeviceQueueFamilyInfo{}
	graphics, present := -1, -1
	for i, f := range families {
		if f.Graphics && f.Present {
			info.GraphicsFamilyIndex = uint32(i)
			info.PresentFamilyIndex = uint32(i)
			return info, true
		}
		if f.Graphics && graphics < 0 {
			graphics = i
		}
		if f.Present && present < 0 {
			present = i
		}
	}
	if graphics < 0 || present < 0 {
		return info, false
	}
	info.GraphicsFamilyIndex = uint32(graphics)
	info.PresentFamilyIndex = uint32(present)
	return info, true
}

// NOTE: Do not create additional queues for shared indices.
func uniqueQueueFamilies(info VulkanPhysicalDeviceQueueFamilyInfo) []uint32 {
	if info.GraphicsFamilyIndex == info.PresentFamilyIndex {
		return []uint32{info.GraphicsFamilyIndex}
	}
	return []uint32{info.GraphicsFamilyIndex, info.PresentFamilyIndex}
}

// pickDepthFormat returns the first candidate usable as an optimally tiled depth attachment.
func pickDepthFormat(candidates []vk.Format, formatProperties func(vk.Format) vk.FormatProperties) (vk.Format, error) {
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range candidates {
		properties := formatProperties(candidate)
		if properties.OptimalTilingFeatures&flags == flags {
			return candidate, nil
		}
	}
	return vk.FormatUndefined, errors.WithStack(core.ErrNoDepthFormat)
}

func deviceExtensionNames(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vkCheck("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	available := make([]vk.ExtensionProperties, count)
	if err := vkCheck("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, available)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range available[:count] {
		available[i].Deref()
		names = append(names, vk.ToString(available[i].ExtensionName[:]))
	}
	return names, nil
}

func DeviceCreate(context *VulkanContext) error {
	device, err := SelectPhysicalDevice(context)
	if err != nil {
		return err
	}
	context.Device = device

	context.Log.Info("Creating logical device...")
	indices := uniqueQueueFamilies(VulkanPhysicalDeviceQueueFamilyInfo{
		GraphicsFamilyIndex: device.GraphicsQueueIndex,
		PresentFamilyIndex:  device.PresentQueueIndex,
	})
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	// Request device features.
	deviceFeatures := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: vk.True,
	}

	available, err := deviceExtensionNames(device.PhysicalDevice)
	if err != nil {
		return err
	}
	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if containsName(available, portabilitySubsetExtensionName) {
		context.Log.Info("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensionNames = append(extensionNames, portabilitySubsetExtensionName)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
		// Deprecated and ignored, so pass nothing.
		EnabledLayerCount:   0,
		PpEnabledLayerNames: nil,
	}

	var logicalDevice vk.Device
	if err := vkCheck("vkCreateDevice", vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice)); err != nil {
		return err
	}
	device.LogicalDevice = logicalDevice
	context.Log.Info("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(logicalDevice, device.GraphicsQueueIndex, 0, &graphicsQueue)
	vk.GetDeviceQueue(logicalDevice, device.PresentQueueIndex, 0, &presentQueue)
	device.GraphicsQueue = graphicsQueue
	device.PresentQueue = presentQueue
	context.Log.Debug("Queues obtained.")

	// Create command pool for graphics queue.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := vkCheck("vkCreateCommandPool", vk.CreateCommandPool(logicalDevice, &poolCreateInfo, context.Allocator, &pool)); err != nil {
		return err
	}
	device.GraphicsCommandPool = pool
	context.Log.Debug("Graphics command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	if device == nil {
		return
	}
	device.GraphicsQueue = nil
	device.PresentQueue = nil

	if device.GraphicsCommandPool != vk.NullCommandPool {
		context.Log.Debug("Destroying command pools...")
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = vk.NullCommandPool
	}

	if device.LogicalDevice != nil {
		context.Log.Debug("Destroying logical device...")
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	device.SwapchainSupport = VulkanSwapchainSupportInfo{}
	context.Device = nil
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (VulkanSwapchainSupportInfo, error) {
	support := VulkanSwapchainSupportInfo{}

	// Surface capabilities
	if err := vkCheck("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &support.Capabilities)); err != nil {
		return support, err
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	// Surface formats
	var formatCount uint32
	if err := vkCheck("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil)); err != nil {
		return support, err
	}
	if formatCount != 0 {
		support.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := vkCheck("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, support.Formats)); err != nil {
			return support, err
		}
		support.Formats = support.Formats[:formatCount]
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	// Present modes
	var presentModeCount uint32
	if err := vkCheck("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil)); err != nil {
		return support, err
	}
	if presentModeCount != 0 {
		support.PresentModes = make([]vk.PresentMode, presentModeCount)
		if err := vkCheck("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, support.PresentModes)); err != nil {
			return support, err
		}
		support.PresentModes = support.PresentModes[:presentModeCount]
	}
	return support, nil
}

func DeviceDetectDepthFormat(device *VulkanDevice) error {
	format, err := pickDepthFormat(depthFormatCandidates, func(f vk.Format) vk.FormatProperties {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, f, &properties)
		properties.Deref()
		return properties
	})
	if err != nil {
		return err
	}
	device.DepthFormat = format
	return nil
}

func SelectPhysicalDevice(context *VulkanContext) (*VulkanDevice, error) {
	var physicalDeviceCount uint32
	if err := vkCheck("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil)); err != nil {
		return nil, err
	}
	if physicalDeviceCount == 0 {
		return nil, errors.WithStack(core.ErrNoVulkanDevice)
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if err := vkCheck("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices)); err != nil {
		return nil, err
	}

	requirements := VulkanPhysicalDeviceRequirements{
		SamplerAnisotropy:    true,
		DiscreteGPU:          true,
		DeviceExtensionNames: []string{vk.KhrSwapchainExtensionName},
	}

	for _, physicalDevice := range physicalDevices[:physicalDeviceCount] {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()
		properties.Limits.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(physicalDevice, &features)
		features.Deref()

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memory)
		memory.Deref()

		queueInfo, support, ok, err := PhysicalDeviceMeetsRequirements(context, physicalDevice, context.Surface, &properties, &features, &requirements)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		device := &VulkanDevice{
			PhysicalDevice:     physicalDevice,
			SwapchainSupport:   support,
			GraphicsQueueIndex: queueInfo.GraphicsFamilyIndex,
			PresentQueueIndex:  queueInfo.PresentFamilyIndex,
			Properties:         properties,
			Features:           features,
			Memory:             memory,
		}
		if err := DeviceDetectDepthFormat(device); err != nil {
			return nil, err
		}
		logDeviceInfo(context.Log, &properties, &memory)
		return device, nil
	}

	return nil, errors.WithStack(core.ErrNoSuitableDevice)
}

func logDeviceInfo(log *core.TaggedLogger, properties *vk.PhysicalDeviceProperties, memory *vk.PhysicalDeviceMemoryProperties) {
	log.Info("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
	log.Info(
		"GPU Driver version: %d.%d.%d",
		vk.Version(properties.DriverVersion).Major(),
		vk.Version(properties.DriverVersion).Minor(),
		vk.Version(properties.DriverVersion).Patch(),
	)
	log.Info(
		"Vulkan API version: %d.%d.%d",
		vk.Version(properties.ApiVersion).Major(),
		vk.Version(properties.ApiVersion).Minor(),
		vk.Version(properties.ApiVersion).Patch(),
	)
	for j := uint32(0); j < memory.MemoryHeapCount; j++ {
		memory.MemoryHeaps[j].Deref()
		memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			log.Info("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			log.Info("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
}

func PhysicalDeviceMeetsRequirements(
	context *VulkanContext,
	device vk.PhysicalDevice,
	surface vk.Surface,
	properties *vk.PhysicalDeviceProperties,
	features *vk.PhysicalDeviceFeatures,
	requirements *VulkanPhysicalDeviceRequirements,
) (VulkanPhysicalDeviceQueueFamilyInfo, VulkanSwapchainSupportInfo, bool, error) {
	var queueInfo VulkanPhysicalDeviceQueueFamilyInfo
	var support VulkanSwapchainSupportInfo
	name := vk.ToString(properties.DeviceName[:])

	if requirements.DiscreteGPU && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		context.Log.Info("Device '%s' is not a discrete GPU, and one is required. Skipping.", name)
		return queueInfo, support, false, nil
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	caps := make([]queueFamilyCaps, queueFamilyCount)
	for i := range caps {
		queueFamilies[i].Deref()
		caps[i].Graphics = vk.QueueFlagBits(queueFamilies[i].QueueFlags)&vk.QueueGraphicsBit != 0

		var supportsPresent vk.Bool32
		if err := vkCheck("vkGetPhysicalDeviceSurfaceSupportKHR", vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent)); err != nil {
			return queueInfo, support, false, err
		}
		caps[i].Present = supportsPresent == vk.True
	}
	queueInfo, ok := pickQueueFamilies(caps)
	if !ok {
		context.Log.Info("Device '%s' lacks a graphics or present queue. Skipping.", name)
		return queueInfo, support, false, nil
	}
	context.Log.Debug("Graphics Family Index: %d", queueInfo.GraphicsFamilyIndex)
	context.Log.Debug("Present Family Index:  %d", queueInfo.PresentFamilyIndex)

	// Device extensions.
	available, err := deviceExtensionNames(device)
	if err != nil {
		return queueInfo, support, false, err
	}
	for _, required := range requirements.DeviceExtensionNames {
		if !containsName(available, required) {
			context.Log.Info("Required extension not found: '%s', skipping device.", required)
			return queueInfo, support, false, nil
		}
	}

	// Query swapchain support.
	support, err = DeviceQuerySwapchainSupport(device, surface)
	if err != nil {
		return queueInfo, support, false, err
	}
	if len(support.Formats) < 1 || len(support.PresentModes) < 1 {
		context.Log.Info("Required swapchain support not present, skipping device.")
		return queueInfo, support, false, nil
	}

	if requirements.SamplerAnisotropy && features.SamplerAnisotropy == vk.False {
		context.Log.Info("Device does not support samplerAnisotropy, skipping.")
		return queueInfo, support, false, nil
	}

	return queueInfo, support, true, nil
}
