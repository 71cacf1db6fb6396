package vulkan

import (
	stdmath "math"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgba := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	assert.Equal(t, preferred, ChooseSurfaceFormat([]vk.SurfaceFormat{unorm, rgba, preferred}))
	assert.Equal(t, unorm, ChooseSurfaceFormat([]vk.SurfaceFormat{unorm, rgba}))
	assert.Equal(t, rgba, ChooseSurfaceFormat([]vk.SurfaceFormat{rgba}))
}

func TestChooseSurfaceFormatRequiresColorSpace(t *testing.T) {
	wrongSpace := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpace(1000104001)}
	other := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	assert.Equal(t, wrongSpace, ChooseSurfaceFormat([]vk.SurfaceFormat{wrongSpace, other}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}))
	// FIFO is guaranteed even when a driver forgets to list it.
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(nil))
}

func variableExtentCaps() vk.SurfaceCapabilities {
	return vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: stdmath.MaxUint32, Height: stdmath.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		MinImageCount:  2,
		MaxImageCount:  0,
	}
}

func TestChooseExtentUsesCurrentExtent(t *testing.T) {
	caps := variableExtentCaps()
	caps.CurrentExtent = vk.Extent2D{Width: 800, Height: 600}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, 1920, 1080))
}

func TestChooseExtentClamps(t *testing.T) {
	caps := variableExtentCaps()

	cases := []struct {
		name   string
		w, h   int
		expect vk.Extent2D
	}{
		{"inside", 800, 600, vk.Extent2D{Width: 800, Height: 600}},
		{"below minimum", 0, 0, vk.Extent2D{Width: 1, Height: 1}},
		{"at minimum", 1, 1, vk.Extent2D{Width: 1, Height: 1}},
		{"at maximum", 4096, 4096, vk.Extent2D{Width: 4096, Height: 4096}},
		{"above maximum", 5000, 4097, vk.Extent2D{Width: 4096, Height: 4096}},
		{"mixed", 5000, 300, vk.Extent2D{Width: 4096, Height: 300}},
		{"negative", -10, 20, vk.Extent2D{Width: 1, Height: 20}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expect, ChooseExtent(caps, c.w, c.h))
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	caps := variableExtentCaps()
	assert.Equal(t, uint32(3), ChooseImageCount(caps))

	caps.MaxImageCount = 3
	assert.Equal(t, uint32(3), ChooseImageCount(caps))

	caps.MaxImageCount = 2
	assert.Equal(t, uint32(2), ChooseImageCount(caps))
}

func TestSwapchainGeometryIsDeterministic(t *testing.T) {
	caps := variableExtentCaps()
	first := ChooseSwapchainGeometry(caps, 1024, 768)
	second := ChooseSwapchainGeometry(caps, 1024, 768)
	require.Equal(t, first, second)
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, first.Extent)
	assert.Equal(t, uint32(3), first.ImageCount)
}

type fakeWindow struct {
	sizes [][2]int
	calls int
	waits int
	// closeAfter makes ShouldClose report true once this many waits happened. Zero never closes.
	closeAfter int
}

func (f *fakeWindow) FramebufferSize() (int, int) {
	s := f.sizes[min(f.calls, len(f.sizes)-1)]
	f.calls++
	return s[0], s[1]
}

func (f *fakeWindow) WaitEvents() {
	f.waits++
}

func (f *fakeWindow) ShouldClose() bool {
	return f.closeAfter > 0 && f.waits >= f.closeAfter
}

func TestWaitForDrawableSizeWhileMinimized(t *testing.T) {
	win := &fakeWindow{sizes: [][2]int{{0, 0}, {0, 600}, {800, 0}, {800, 600}}}
	w, h, ok := waitForDrawableSize(win)
	require.True(t, ok)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Equal(t, 3, win.waits)
	assert.Equal(t, 4, win.calls)
}

func TestWaitForDrawableSizeNoWait(t *testing.T) {
	win := &fakeWindow{sizes: [][2]int{{640, 480}}}
	w, h, ok := waitForDrawableSize(win)
	require.True(t, ok)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.Zero(t, win.waits)
}

func TestWaitForDrawableSizeStopsOnClose(t *testing.T) {
	// Stays minimized forever; a close request arrives after two wake-ups.
	win := &fakeWindow{sizes: [][2]int{{0, 0}}, closeAfter: 2}
	w, h, ok := waitForDrawableSize(win)
	assert.False(t, ok)
	assert.Zero(t, w)
	assert.Zero(t, h)
	assert.Equal(t, 2, win.waits)
}

func TestWaitForDrawableSizeIgnoresCloseWhenDrawable(t *testing.T) {
	win := &fakeWindow{sizes: [][2]int{{800, 600}}, closeAfter: 1}
	win.waits = 1
	_, _, ok := waitForDrawableSize(win)
	assert.True(t, ok)
}
