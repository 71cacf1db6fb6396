package vulkan

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vkcube/engine/renderer/components"
)

// UniformBufferObject matches the std140 block at binding 0 of the vertex shader.
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

const uniformBufferSize = vk.DeviceSize(unsafe.Sizeof(UniformBufferObject{}))

// ModelMatrix rotates about the Z axis.
func ModelMatrix(angleDegrees float32) mgl32.Mat4 {
	return mgl32.HomogRotate3DZ(mgl32.DegToRad(angleDegrees))
}

/**
 * @brief Perspective projection for the given swapchain extent. Y is flipped
 * because Vulkan clip space points down where OpenGL's points up.
 */
func ProjectionMatrix(camera *components.Camera, extent vk.Extent2D) mgl32.Mat4 {
	aspect := float32(1)
	if extent.Height != 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	proj := camera.GetProjection(aspect)
	proj[5] *= -1
	return proj
}

func NewUniformBufferObject(camera *components.Camera, angleDegrees float32, extent vk.Extent2D) UniformBufferObject {
	return UniformBufferObject{
		Model: ModelMatrix(angleDegrees),
		View:  camera.GetView(),
		Proj:  ProjectionMatrix(camera, extent),
	}
}

// Bytes views the matrices in column-major order without copying.
func (u *UniformBufferObject) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), uniformBufferSize)
}

// UniformBufferCreate allocates one host-coherent uniform buffer and leaves it mapped.
func UniformBufferCreate(context *VulkanContext) (*VulkanBuffer, error) {
	buffer, err := BufferCreate(
		context,
		uniformBufferSize,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return nil, err
	}
	if _, err := buffer.LockMemory(context); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}
