package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

const (
	// GPULightSize is the byte size of one light record.
	GPULightSize = 32

	// GPULightSetHeaderSize is the byte size of the header in front of the light records.
	GPULightSetHeaderSize = 16

	// GPUSimulationUniformsSize is the byte size of the move_lights uniform block.
	GPUSimulationUniformsSize = 48
)

// GPULightSource is the canonical WGSL definition of the Light and LightSet structs and the
// shared attenuation function. Prepended to every shader that reads the light set.
//
//go:embed assets/light_types.wgsl
var GPULightSource string

// MoveLightsSource is the light simulation compute shader. Requires GPULightSource in front.
//
//go:embed assets/move_lights.wgsl
var MoveLightsSource string

// GPULight is the GPU-aligned representation of a single point light.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 32 bytes (vec3 is 16-byte aligned, so radius packs into its tail).
type GPULight struct {
	Position [3]float32 // offset  0: world-space position
	Radius   float32    // offset 12: influence radius
	Color    [3]float32 // offset 16: intensity-scaled RGB
	_pad     float32    // offset 28
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, GPULightSize)
	g.marshalInto(buf)
	return buf
}

func (g *GPULight) marshalInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Radius))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], 0) // padding
}

// GPULightSetHeader is the header at the start of the light set storage buffer.
// Matches the leading count field of the WGSL LightSet struct; the runtime-sized light
// array that follows is 16-byte aligned, which puts it at offset 16.
type GPULightSetHeader struct {
	Count uint32    // offset 0: number of active lights
	_pad  [3]uint32 // offset 4
}

// Size returns the size of the GPULightSetHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightSetHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the header into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightSetHeader) Marshal() []byte {
	buf := make([]byte, GPULightSetHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Count)
	return buf
}

// GPUSimulationUniforms is the uniform block of the move_lights compute shader.
// Size: 48 bytes.
//
// Layout:
//
//	f32        time        ( 4 bytes, offset  0)
//	f32        speed       ( 4 bytes, offset  4)
//	vec4<f32>  bounds_min  (16 bytes, offset 16)
//	vec4<f32>  bounds_max  (16 bytes, offset 32)
type GPUSimulationUniforms struct {
	Time      float32
	Speed     float32
	_pad      [2]float32
	BoundsMin [4]float32
	BoundsMax [4]float32
}

// Size returns the size of the GPUSimulationUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (u *GPUSimulationUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (u *GPUSimulationUniforms) Marshal() []byte {
	buf := make([]byte, GPUSimulationUniformsSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(u.Time))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(u.Speed))
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[16+i*4:20+i*4], math.Float32bits(u.BoundsMin[i]))
		binary.LittleEndian.PutUint32(buf[32+i*4:36+i*4], math.Float32bits(u.BoundsMax[i]))
	}
	return buf
}

// ToGPULight converts a Light into its GPU record.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position: l.Position,
		Radius:   l.Radius,
		Color:    l.Color,
	}
}
