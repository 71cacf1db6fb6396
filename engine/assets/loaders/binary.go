package loaders

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkcube/engine/core"
)

// First word of every SPIR-V module.
const spirvMagic uint32 = 0x07230203

// LoadSPIRV reads a compiled shader module from disk.
func LoadSPIRV(path string) ([]uint32, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading shader %s", path)
	}
	code, err := BytesToBytecode(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return code, nil
}

/**
 * @brief Converts a little-endian byte stream into SPIR-V words.
 * The stream must be non-empty, a multiple of 4 bytes long and start
 * with the SPIR-V magic number.
 */
func BytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Wrapf(core.ErrInvalidSPIRV, "length %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}
	if byteCode[0] != spirvMagic {
		return nil, errors.Wrapf(core.ErrInvalidSPIRV, "bad magic 0x%08x", byteCode[0])
	}
	return byteCode, nil
}
