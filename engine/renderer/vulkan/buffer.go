package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

/**
 * @brief A buffer and the device memory bound to it. Host-visible buffers may
 * stay mapped for their whole lifetime.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
	Usage  vk.BufferUsageFlags

	/** @brief Memory properties the buffer was allocated with. */
	MemoryFlags vk.MemoryPropertyFlags

	mapped unsafe.Pointer
}

func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, errors.New("cannot create a zero-sized buffer")
	}
	outBuffer := &VulkanBuffer{
		Size:        size,
		Usage:       usage,
		MemoryFlags: memoryFlags,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive, // NOTE: Only used in one queue.
	}

	var handle vk.Buffer
	if err := vkCheck("vkCreateBuffer", vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &handle)); err != nil {
		return nil, err
	}
	outBuffer.Handle = handle

	// Gather memory requirements.
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, outBuffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}

	// Allocate memory info
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}

	var memory vk.DeviceMemory
	if err := vkCheck("vkAllocateMemory", vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	outBuffer.Memory = memory

	if err := vkCheck("vkBindBufferMemory", vk.BindBufferMemory(context.Device.LogicalDevice, outBuffer.Handle, outBuffer.Memory, 0)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	return outBuffer, nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b.mapped != nil {
		b.UnlockMemory(context)
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	b.Size = 0
}

// LockMemory maps the whole buffer. The mapping is reused until UnlockMemory.
func (b *VulkanBuffer) LockMemory(context *VulkanContext) (unsafe.Pointer, error) {
	if b.mapped != nil {
		return b.mapped, nil
	}
	var data unsafe.Pointer
	if err := vkCheck("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, b.Memory, 0, b.Size, 0, &data)); err != nil {
		return nil, err
	}
	b.mapped = data
	return data, nil
}

func (b *VulkanBuffer) UnlockMemory(context *VulkanContext) {
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	b.mapped = nil
}

/**
 * @brief Copies data into a host-visible buffer. A persistent mapping is used
 * when present, otherwise the memory is mapped for the copy only.
 */
func (b *VulkanBuffer) LoadData(context *VulkanContext, data []byte) error {
	if vk.DeviceSize(len(data)) > b.Size {
		return errors.Newf("cannot load %d bytes into a buffer of %d bytes", len(data), b.Size)
	}
	if len(data) == 0 {
		return nil
	}
	if b.mapped != nil {
		vk.Memcopy(b.mapped, data)
		return nil
	}
	ptr, err := b.LockMemory(context)
	if err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	b.UnlockMemory(context)
	return nil
}

// CopyTo records and waits on a one-shot transfer of size bytes into dest.
func (b *VulkanBuffer) CopyTo(context *VulkanContext, dest *VulkanBuffer, size vk.DeviceSize) error {
	return RunSingleUse(context, func(cmd vk.CommandBuffer) error {
		region := vk.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		}
		vk.CmdCopyBuffer(cmd, b.Handle, dest.Handle, 1, []vk.BufferCopy{region})
		return nil
	})
}

func stagingBufferCreate(context *VulkanContext, data []byte) (*VulkanBuffer, error) {
	staging, err := BufferCreate(
		context,
		vk.DeviceSize(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit),
	)
	if err != nil {
		return nil, err
	}
	if err := staging.LoadData(context, data); err != nil {
		staging.Destroy(context)
		return nil, err
	}
	return staging, nil
}

/**
 * @brief Creates a device-local buffer holding data. The bytes travel through
 * a host-visible staging buffer which is released before returning.
 */
func DeviceLocalBufferCreate(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	staging, err := stagingBufferCreate(context, data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	buffer, err := BufferCreate(
		context,
		vk.DeviceSize(len(data)),
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
	)
	if err != nil {
		return nil, err
	}
	if err := staging.CopyTo(context, buffer, buffer.Size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}
