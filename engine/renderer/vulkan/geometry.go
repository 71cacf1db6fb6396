package vulkan

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
)

/**
 * @brief Interleaved vertex as laid out in the vertex buffer.
 */
type Vertex struct {
	/** @brief Object-space position, location 0. */
	Pos mgl32.Vec3
	/** @brief RGBA tint, location 1. */
	Color mgl32.Vec4
	/** @brief Texture coordinate, location 2. */
	TexCoord mgl32.Vec2
}

const cubeHalfExtent float32 = 0.5

// One quad per face, counter-clockwise when seen from outside the cube.
var cubeFaces = [6]struct {
	corners [4]mgl32.Vec3
	color   mgl32.Vec4
}{
	{ // +Z
		corners: [4]mgl32.Vec3{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}},
		color:   mgl32.Vec4{1, 1, 1, 1},
	},
	{ // -Z
		corners: [4]mgl32.Vec3{{-1, 1, -1}, {1, 1, -1}, {1, -1, -1}, {-1, -1, -1}},
		color:   mgl32.Vec4{1, 1, 0, 1},
	},
	{ // +X
		corners: [4]mgl32.Vec3{{1, -1, -1}, {1, 1, -1}, {1, 1, 1}, {1, -1, 1}},
		color:   mgl32.Vec4{1, 0, 0, 1},
	},
	{ // -X
		corners: [4]mgl32.Vec3{{-1, 1, -1}, {-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}},
		color:   mgl32.Vec4{0, 1, 1, 1},
	},
	{ // +Y
		corners: [4]mgl32.Vec3{{1, 1, -1}, {-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}},
		color:   mgl32.Vec4{0, 1, 0, 1},
	},
	{ // -Y
		corners: [4]mgl32.Vec3{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}},
		color:   mgl32.Vec4{0, 0, 1, 1},
	},
}

// Image rows run top to bottom, so the lower corners sample v = 1.
var quadTexCoords = [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

var quadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// CubeGeometry builds the 24 vertices and 36 indices of a unit cube centered on the origin.
func CubeGeometry() ([]Vertex, []uint16) {
	vertices := make([]Vertex, 0, len(cubeFaces)*4)
	indices := make([]uint16, 0, len(cubeFaces)*len(quadIndices))
	for _, face := range cubeFaces {
		base := uint16(len(vertices))
		for i, corner := range face.corners {
			vertices = append(vertices, Vertex{
				Pos:      corner.Mul(cubeHalfExtent),
				Color:    face.color,
				TexCoord: quadTexCoords[i],
			})
		}
		for _, index := range quadIndices {
			indices = append(indices, base+index)
		}
	}
	return vertices, indices
}

func VertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}
}

func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Location: 0,
			Binding:  0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Location: 1,
			Binding:  0,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Location: 2,
			Binding:  0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}

func vertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(unsafe.Sizeof(Vertex{})))
}

func indexBytes(indices []uint16) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*2)
}

/**
 * @brief Uploads the cube to device-local vertex and index buffers on the
 * context.
 */
func GeometryUpload(context *VulkanContext, vertices []Vertex, indices []uint16) error {
	vertexBuffer, err := DeviceLocalBufferCreate(context, vertexBytes(vertices), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return err
	}
	indexBuffer, err := DeviceLocalBufferCreate(context, indexBytes(indices), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		vertexBuffer.Destroy(context)
		return err
	}
	context.VertexBuffer = vertexBuffer
	context.IndexBuffer = indexBuffer
	context.IndexCount = uint32(len(indices))
	context.Log.Debug("geometry uploaded: %d vertices, %d indices", len(vertices), len(indices))
	return nil
}

func GeometryDestroy(context *VulkanContext) {
	if context.IndexBuffer != nil {
		context.IndexBuffer.Destroy(context)
		context.IndexBuffer = nil
	}
	if context.VertexBuffer != nil {
		context.VertexBuffer.Destroy(context)
		context.VertexBuffer = nil
	}
	context.IndexCount = 0
}
