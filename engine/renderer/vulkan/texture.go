package vulkan

import (
	"image"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

// VulkanTexture is the sampled cube texture and its sampler.
type VulkanTexture struct {
	Image   *VulkanImage
	Sampler vk.Sampler
}

/**
 * @brief Uploads pixels to a device-local R8G8B8A8_SRGB image. The data goes
 * through a staging buffer and two layout transitions recorded in a single
 * one-shot command buffer.
 */
func TextureCreate(context *VulkanContext, pixels *image.NRGBA) (*VulkanTexture, error) {
	width, height := pixels.Rect.Dx(), pixels.Rect.Dy()
	if width == 0 || height == 0 {
		return nil, errors.New("texture has no pixels")
	}
	if pixels.Stride != width*4 {
		return nil, errors.Newf("texture rows are not tightly packed (stride %d, width %d)", pixels.Stride, width)
	}

	staging, err := stagingBufferCreate(context, pixels.Pix[:width*height*4])
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	img, err := ImageCreate(
		context,
		uint32(width),
		uint32(height),
		TextureFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectColorBit),
	)
	if err != nil {
		return nil, err
	}

	err = RunSingleUse(context, func(cmd vk.CommandBuffer) error {
		if err := img.ImageTransitionLayout(cmd, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		img.ImageCopyFromBuffer(cmd, staging.Handle)
		return img.ImageTransitionLayout(cmd, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		img.ImageDestroy(context)
		return nil, err
	}

	sampler, err := samplerCreate(context)
	if err != nil {
		img.ImageDestroy(context)
		return nil, err
	}

	context.Log.Debug("texture uploaded: %dx%d", width, height)
	return &VulkanTexture{Image: img, Sampler: sampler}, nil
}

func samplerCreate(context *VulkanContext) (vk.Sampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           context.Device.Properties.Limits.MaxSamplerAnisotropy,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0.0,
		MaxLod:                  0.0,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}

	var sampler vk.Sampler
	if err := vkCheck("vkCreateSampler", vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &sampler)); err != nil {
		return vk.NullSampler, err
	}
	return sampler, nil
}

func (t *VulkanTexture) Destroy(context *VulkanContext) {
	if t.Sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, t.Sampler, context.Allocator)
		t.Sampler = vk.NullSampler
	}
	if t.Image != nil {
		t.Image.ImageDestroy(context)
		t.Image = nil
	}
}
