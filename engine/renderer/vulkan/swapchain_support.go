package vulkan

import (
	stdmath "math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkcube/engine/math"
)

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// ChooseSurfaceFormat prefers 8-bit sRGB BGRA and otherwise takes the first reported format.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	if len(formats) == 0 {
		return vk.SurfaceFormat{}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox. FIFO is always available.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

/**
 * @brief Uses the surface's current extent when it is fixed. A width of
 * UINT32_MAX means the window decides, in which case the framebuffer size is
 * clamped into the allowed range.
 */
func ChooseExtent(caps vk.SurfaceCapabilities, framebufferWidth, framebufferHeight int) vk.Extent2D {
	if caps.CurrentExtent.Width != stdmath.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  math.Clamp(uint32(max(framebufferWidth, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(uint32(max(framebufferHeight, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum. A zero maximum means unbounded.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}
	return imageCount
}

type SwapchainGeometry struct {
	Extent     vk.Extent2D
	ImageCount uint32
}

func ChooseSwapchainGeometry(caps vk.SurfaceCapabilities, framebufferWidth, framebufferHeight int) SwapchainGeometry {
	return SwapchainGeometry{
		Extent:     ChooseExtent(caps, framebufferWidth, framebufferHeight),
		ImageCount: ChooseImageCount(caps),
	}
}

type drawableWindow interface {
	FramebufferSize() (int, int)
	WaitEvents()
	ShouldClose() bool
}

/**
 * @brief Blocks while the window is minimized. Returns ok=false without a
 * size when the window is asked to close during the wait, in which case the
 * caller must not build anything against the surface.
 */
func waitForDrawableSize(window drawableWindow) (width, height int, ok bool) {
	width, height = window.FramebufferSize()
	for width == 0 || height == 0 {
		if window.ShouldClose() {
			return 0, 0, false
		}
		window.WaitEvents()
		width, height = window.FramebufferSize()
	}
	return width, height, true
}
