package vulkan

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeGeometryCounts(t *testing.T) {
	vertices, indices := CubeGeometry()
	require.Len(t, vertices, 24)
	require.Len(t, indices, 36)
	for _, index := range indices {
		assert.Less(t, int(index), len(vertices))
	}
}

func TestCubeFacesWindOutward(t *testing.T) {
	vertices, indices := CubeGeometry()
	for tri := 0; tri < len(indices); tri += 3 {
		a := vertices[indices[tri]].Pos
		b := vertices[indices[tri+1]].Pos
		c := vertices[indices[tri+2]].Pos
		normal := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		assert.Greater(t, normal.Dot(centroid), float32(0), "triangle %d faces inward", tri/3)
	}
}

func TestCubeVerticesOnUnitCube(t *testing.T) {
	vertices, _ := CubeGeometry()
	for _, v := range vertices {
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 0.5, abs32(v.Pos[i]), 1e-6)
		}
		assert.Equal(t, float32(1), v.Color[3])
		assert.True(t, v.TexCoord[0] == 0 || v.TexCoord[0] == 1)
		assert.True(t, v.TexCoord[1] == 0 || v.TexCoord[1] == 1)
	}
}

func TestVertexLayout(t *testing.T) {
	binding := VertexBindingDescription()
	assert.Equal(t, uint32(36), binding.Stride)
	assert.Equal(t, vk.VertexInputRateVertex, binding.InputRate)

	attributes := VertexAttributeDescriptions()
	require.Len(t, attributes, 3)

	assert.Equal(t, uint32(0), attributes[0].Location)
	assert.Equal(t, vk.FormatR32g32b32Sfloat, attributes[0].Format)
	assert.Equal(t, uint32(0), attributes[0].Offset)

	assert.Equal(t, uint32(1), attributes[1].Location)
	assert.Equal(t, vk.FormatR32g32b32a32Sfloat, attributes[1].Format)
	assert.Equal(t, uint32(12), attributes[1].Offset)

	assert.Equal(t, uint32(2), attributes[2].Location)
	assert.Equal(t, vk.FormatR32g32Sfloat, attributes[2].Format)
	assert.Equal(t, uint32(28), attributes[2].Offset)
}

func TestGeometryByteViews(t *testing.T) {
	vertices, indices := CubeGeometry()
	assert.Len(t, vertexBytes(vertices), len(vertices)*int(unsafe.Sizeof(Vertex{})))
	assert.Len(t, indexBytes(indices), len(indices)*2)
	assert.Nil(t, vertexBytes(nil))
	assert.Nil(t, indexBytes(nil))

	// Little-endian low byte of the second index.
	assert.Equal(t, byte(indices[1]), indexBytes(indices)[2])
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
