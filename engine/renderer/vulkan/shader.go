package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkcube/engine/assets"
)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

func ShaderStageCreate(context *VulkanContext, code []uint32, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		return nil, errors.New("empty shader bytecode")
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    unsafe.Slice((*uint32)(unsafe.Pointer(&code[0])), len(code)),
	}

	var handle vk.ShaderModule
	if err := vkCheck("vkCreateShaderModule", vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}

	return &VulkanShaderStage{
		Handle: handle,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: handle,
			PName:  VulkanSafeString("main"),
		},
	}, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = vk.NullShaderModule
	}
}

// ShaderStagesCreate builds the vertex and fragment stages. The modules may be destroyed once the pipeline exists.
func ShaderStagesCreate(context *VulkanContext, shaders assets.ShaderPair) ([]*VulkanShaderStage, error) {
	vertex, err := ShaderStageCreate(context, shaders.Vertex, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	fragment, err := ShaderStageCreate(context, shaders.Fragment, vk.ShaderStageFragmentBit)
	if err != nil {
		vertex.Destroy(context)
		return nil, errors.Wrap(err, "fragment shader")
	}
	return []*VulkanShaderStage{vertex, fragment}, nil
}
