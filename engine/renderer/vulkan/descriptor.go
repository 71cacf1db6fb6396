package vulkan

import vk "github.com/goki/vulkan"

const (
	uniformBufferBinding = 0
	textureBinding       = 1
)

/**
 * @brief The descriptor set layout, the pool the per-frame sets are allocated
 * from, and the sets themselves.
 */
type VulkanDescriptors struct {
	/** @brief Layout shared by every set and by the pipeline layout. */
	Layout vk.DescriptorSetLayout
	/** @brief Pool sized for exactly MaxFramesInFlight sets. */
	Pool vk.DescriptorPool
	/** @brief One set per frame in flight. */
	Sets [MaxFramesInFlight]vk.DescriptorSet
}

func descriptorSetLayoutBindings() []vk.DescriptorSetLayoutBinding {
	return []vk.DescriptorSetLayoutBinding{
		{
			Binding:         uniformBufferBinding,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		},
		{
			Binding:         textureBinding,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
}

func descriptorPoolSizes(setCount uint32) []vk.DescriptorPoolSize {
	return []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: setCount},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: setCount},
	}
}

func DescriptorsCreate(context *VulkanContext) (*VulkanDescriptors, error) {
	outDescriptors := &VulkanDescriptors{}
	device := context.Device.LogicalDevice

	bindings := descriptorSetLayoutBindings()
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	var layout vk.DescriptorSetLayout
	if err := vkCheck("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(device, &layoutInfo, context.Allocator, &layout)); err != nil {
		return nil, err
	}
	outDescriptors.Layout = layout

	poolSizes := descriptorPoolSizes(MaxFramesInFlight)
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       MaxFramesInFlight,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	var pool vk.DescriptorPool
	if err := vkCheck("vkCreateDescriptorPool", vk.CreateDescriptorPool(device, &poolInfo, context.Allocator, &pool)); err != nil {
		outDescriptors.Destroy(context)
		return nil, err
	}
	outDescriptors.Pool = pool

	layouts := make([]vk.DescriptorSetLayout, MaxFramesInFlight)
	for i := range layouts {
		layouts[i] = outDescriptors.Layout
	}
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     outDescriptors.Pool,
		DescriptorSetCount: MaxFramesInFlight,
		PSetLayouts:        layouts,
	}
	if err := vkCheck("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(device, &allocateInfo, &outDescriptors.Sets[0])); err != nil {
		outDescriptors.Destroy(context)
		return nil, err
	}
	return outDescriptors, nil
}

/**
 * @brief Points the set of frame slot i at that slot's uniform buffer and at
 * the shared texture. Must not be called while the set is in use by the GPU.
 */
func (d *VulkanDescriptors) Write(context *VulkanContext, i int, uniform *VulkanBuffer, texture *VulkanTexture) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: uniform.Handle,
		Offset: 0,
		Range:  uniformBufferSize,
	}
	imageInfo := vk.DescriptorImageInfo{
		Sampler:     texture.Sampler,
		ImageView:   texture.Image.View,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.Sets[i],
			DstBinding:      uniformBufferBinding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          d.Sets[i],
			DstBinding:      textureBinding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
		},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

// WriteAll rewrites every frame slot's set.
func (d *VulkanDescriptors) WriteAll(context *VulkanContext) {
	for i, slot := range context.Frames {
		if slot == nil {
			continue
		}
		d.Write(context, i, slot.UniformBuffer, context.Texture)
		slot.DescriptorSet = d.Sets[i]
	}
}

// Destroy releases the pool, which frees its sets, and then the layout.
func (d *VulkanDescriptors) Destroy(context *VulkanContext) {
	if d.Pool != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, d.Pool, context.Allocator)
		d.Pool = nil
	}
	for i := range d.Sets {
		d.Sets[i] = nil
	}
	if d.Layout != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, d.Layout, context.Allocator)
		d.Layout = nil
	}
}
