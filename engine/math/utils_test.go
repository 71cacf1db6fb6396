package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(1), Clamp[uint32](0, 1, 10))
	assert.Equal(t, uint32(10), Clamp[uint32](4000, 1, 10))
	assert.Equal(t, uint32(1), Clamp[uint32](1, 1, 10))
	assert.Equal(t, uint32(10), Clamp[uint32](10, 1, 10))
	assert.Equal(t, uint32(7), Clamp[uint32](7, 1, 10))
	assert.Equal(t, -1.5, Clamp(-3.0, -1.5, 1.5))
}
