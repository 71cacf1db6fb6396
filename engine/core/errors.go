package core

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrNoVulkanDevice         = errors.New("no devices which support Vulkan were found")
	ErrNoSuitableDevice       = errors.New("no physical device meets the requirements")
	ErrValidationLayerMissing = errors.New("required validation layer is missing")
	ErrNoDepthFormat          = errors.New("no supported depth format")
	ErrNoMemoryType           = errors.New("no suitable memory type")
	ErrUnsupportedTransition  = errors.New("unsupported image layout transition")
	ErrInvalidSPIRV           = errors.New("invalid SPIR-V bytecode")
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrWindowClosing          = errors.New("window closed before it could be drawn to")
)
