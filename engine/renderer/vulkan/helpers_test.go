package vulkan

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkcube/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVkCheck(t *testing.T) {
	require.NoError(t, vkCheck("vkQueueSubmit", vk.Success))

	err := vkCheck("vkQueueSubmit", vk.ErrorDeviceLost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vkQueueSubmit")
	assert.Contains(t, err.Error(), "VK_ERROR_DEVICE_LOST")
	assert.True(t, IsResult(err, vk.ErrorDeviceLost))
	assert.True(t, IsResult(errors.Wrap(err, "drawing"), vk.ErrorDeviceLost))
	assert.False(t, IsResult(err, vk.ErrorOutOfDate))
	assert.False(t, IsResult(errors.New("plain"), vk.ErrorDeviceLost))
}

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_SUBOPTIMAL_KHR", VulkanResultString(vk.Suboptimal))
	assert.Equal(t, "VkResult(-12345)", VulkanResultString(vk.Result(-12345)))
}

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, VulkanSafeStrings([]string{"a", "b\x00"}))
}

func TestRequiredInstanceExtensions(t *testing.T) {
	window := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}

	assert.Equal(t, window, requiredInstanceExtensions(window, "linux", false))

	withDebug := requiredInstanceExtensions(window, "linux", true)
	assert.Equal(t, append(append([]string{}, window...), vk.ExtDebugReportExtensionName), withDebug)

	darwin := requiredInstanceExtensions([]string{"VK_KHR_surface", "VK_EXT_metal_surface"}, "darwin", false)
	assert.Contains(t, darwin, portabilityEnumerationExtensionName)
	assert.Contains(t, darwin, physicalDeviceProperties2Extension)

	// The window list must not be modified.
	assert.Len(t, window, 2)
}

func TestDedupeNamesIgnoresTerminator(t *testing.T) {
	names := dedupeNames([]string{"VK_KHR_surface", "VK_KHR_surface\x00", "VK_EXT_debug_report"})
	assert.Equal(t, []string{"VK_KHR_surface", "VK_EXT_debug_report"}, names)
}

func TestContainsNameIgnoresTerminator(t *testing.T) {
	available := []string{"VK_KHR_swapchain", "VK_KHR_portability_subset"}
	assert.True(t, containsName(available, vk.KhrSwapchainExtensionName))
	assert.True(t, containsName(available, "VK_KHR_swapchain"))
	assert.False(t, containsName(available, "VK_EXT_mesh_shader"))
}

func TestPickQueueFamilies(t *testing.T) {
	t.Run("shared family preferred", func(t *testing.T) {
		info, ok := pickQueueFamilies([]queueFamilyCaps{
			{Graphics: true},
			{Present: true},
			{Graphics: true, Present: true},
		})
		require.True(t, ok)
		assert.Equal(t, uint32(2), info.GraphicsFamilyIndex)
		assert.Equal(t, uint32(2), info.PresentFamilyIndex)
	})
	t.Run("separate families", func(t *testing.T) {
		info, ok := pickQueueFamilies([]queueFamilyCaps{
			{Present: true},
			{Graphics: true},
			{Graphics: true},
		})
		require.True(t, ok)
		assert.Equal(t, uint32(1), info.GraphicsFamilyIndex)
		assert.Equal(t, uint32(0), info.PresentFamilyIndex)
	})
	t.Run("no present support", func(t *testing.T) {
		_, ok := pickQueueFamilies([]queueFamilyCaps{{Graphics: true}})
		assert.False(t, ok)
	})
	t.Run("empty", func(t *testing.T) {
		_, ok := pickQueueFamilies(nil)
		assert.False(t, ok)
	})
}

func TestUniqueQueueFamilies(t *testing.T) {
	assert.Equal(t, []uint32{3}, uniqueQueueFamilies(VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: 3, PresentFamilyIndex: 3}))
	assert.Equal(t, []uint32{0, 1}, uniqueQueueFamilies(VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: 0, PresentFamilyIndex: 1}))
}

func TestPickDepthFormat(t *testing.T) {
	supported := map[vk.Format]bool{vk.FormatD24UnormS8Uint: true, vk.FormatD32SfloatS8Uint: true}
	props := func(f vk.Format) vk.FormatProperties {
		if supported[f] {
			return vk.FormatProperties{OptimalTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)}
		}
		// Linear-only support does not count.
		return vk.FormatProperties{LinearTilingFeatures: vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)}
	}

	format, err := pickDepthFormat(depthFormatCandidates, props)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatD32SfloatS8Uint, format)

	_, err = pickDepthFormat(depthFormatCandidates, func(vk.Format) vk.FormatProperties { return vk.FormatProperties{} })
	assert.ErrorIs(t, err, core.ErrNoDepthFormat)
}

func TestFindMemoryType(t *testing.T) {
	var props vk.PhysicalDeviceMemoryProperties
	props.MemoryTypeCount = 3
	props.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	props.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	props.MemoryTypes[2].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	hostCoherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	index, err := findMemoryType(props, 0b111, hostCoherent)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), index)

	index, err = findMemoryType(props, 0b111, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), index)

	// The filter excludes the only matching type.
	_, err = findMemoryType(props, 0b011, hostCoherent)
	assert.ErrorIs(t, err, core.ErrNoMemoryType)
}

func TestLayoutTransitionBarrier(t *testing.T) {
	upload, err := layoutTransitionBarrier(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(0), upload.srcAccess)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), upload.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), upload.srcStage)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), upload.dstStage)

	read, err := layoutTransitionBarrier(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), read.dstAccess)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), read.dstStage)

	// The depth image is left to the render pass, which starts it from UNDEFINED.
	_, err = layoutTransitionBarrier(vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	assert.ErrorIs(t, err, core.ErrUnsupportedTransition)
	_, err = layoutTransitionBarrier(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal)
	assert.ErrorIs(t, err, core.ErrUnsupportedTransition)
}

func TestDescriptorLayout(t *testing.T) {
	bindings := descriptorSetLayoutBindings()
	require.Len(t, bindings, 2)

	assert.Equal(t, uint32(0), bindings[0].Binding)
	assert.Equal(t, vk.DescriptorTypeUniformBuffer, bindings[0].DescriptorType)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit), bindings[0].StageFlags)

	assert.Equal(t, uint32(1), bindings[1].Binding)
	assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, bindings[1].DescriptorType)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), bindings[1].StageFlags)

	for _, size := range descriptorPoolSizes(MaxFramesInFlight) {
		assert.Equal(t, uint32(MaxFramesInFlight), size.DescriptorCount)
	}
}

func TestPipelineFixedState(t *testing.T) {
	raster := rasterizationState()
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), raster.CullMode)
	assert.Equal(t, vk.FrontFaceCounterClockwise, raster.FrontFace)
	assert.Equal(t, vk.PolygonModeFill, raster.PolygonMode)

	depth := depthStencilState()
	assert.Equal(t, vk.Bool32(vk.True), depth.DepthTestEnable)
	assert.Equal(t, vk.Bool32(vk.True), depth.DepthWriteEnable)
	assert.Equal(t, vk.CompareOpLess, depth.DepthCompareOp)

	assert.Equal(t, vk.Bool32(vk.False), colorBlendAttachmentState().BlendEnable)
	assert.ElementsMatch(t, []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}, pipelineDynamicStates)
}

func TestRenderpassAttachments(t *testing.T) {
	attachments := renderpassAttachments(vk.FormatB8g8r8a8Srgb, vk.FormatD32Sfloat)
	require.Len(t, attachments, 2)

	color, depth := attachments[0], attachments[1]
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, color.Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, color.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, color.StoreOp)
	assert.Equal(t, vk.ImageLayoutPresentSrc, color.FinalLayout)

	assert.Equal(t, vk.FormatD32Sfloat, depth.Format)
	assert.Equal(t, vk.AttachmentLoadOpClear, depth.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, depth.StoreOp)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, depth.FinalLayout)

	dep := renderpassDependency()
	assert.Equal(t, uint32(vk.SubpassExternal), dep.SrcSubpass)
	assert.Equal(t, uint32(0), dep.DstSubpass)
	assert.NotZero(t, dep.DstAccessMask&vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit))
}

func TestClearValuesDepthIsOne(t *testing.T) {
	rp := &VulkanRenderpass{R: 0.1, G: 0.2, B: 0.3, A: 1, Depth: 1, Stencil: 0}
	assert.Len(t, rp.clearValues(), 2)
}

func TestAdvanceAngle(t *testing.T) {
	assert.InDelta(t, 0.5, advanceAngle(0, DefaultRotationStep), 1e-6)
	assert.InDelta(t, 0.25, advanceAngle(359.75, 0.5), 1e-4)
	assert.InDelta(t, 359.5, advanceAngle(0, -0.5), 1e-4)
	assert.InDelta(t, 0, advanceAngle(359.5, 0.5), 1e-4)

	angle := float32(0)
	for i := 0; i < 720; i++ {
		angle = advanceAngle(angle, DefaultRotationStep)
		assert.GreaterOrEqual(t, angle, float32(0))
		assert.Less(t, angle, float32(360))
	}
	assert.InDelta(t, 0, angle, 1e-2)
}

func TestRendererDefaults(t *testing.T) {
	vr := New(nil, RendererConfig{ApplicationName: "test"})
	assert.Equal(t, DefaultRotationStep, vr.config.RotationStep)
	assert.NotEmpty(t, vr.SessionID)
	assert.NotNil(t, vr.context.Log)

	vr.TogglePause()
	assert.True(t, vr.paused)
	vr.angle = 42
	vr.ResetRotation()
	assert.Zero(t, vr.Angle())

	vr.Resized(640, 480)
	assert.True(t, vr.context.FramebufferResized)
	assert.NoError(t, vr.WaitIdle())
}
