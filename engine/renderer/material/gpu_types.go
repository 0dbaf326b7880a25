package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUMaterialParamsSize is the byte size of the MaterialParams block.
const GPUMaterialParamsSize = 32

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams layout exactly (32 bytes).
//
//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

// GPUMaterialParams is the GPU-aligned uniform read by the geometry fragment shaders.
// Matches the WGSL MaterialParams struct layout exactly (see GPUMaterialParamsSource).
// Size: 32 bytes.
type GPUMaterialParams struct {
	BaseColor mgl32.Vec4 // offset  0: RGBA base color (16 bytes)
	Specular  float32    // offset 16: specular strength
	Textured  uint32     // offset 20: 1 when the albedo texture should be sampled
	_pad      [2]uint32  // offset 24: padding to 32 bytes
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, GPUMaterialParamsSize)
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.BaseColor[i]))
	}
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Specular))
	binary.LittleEndian.PutUint32(buf[20:24], g.Textured)
	return buf
}
