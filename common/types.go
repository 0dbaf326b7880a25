// Package common holds the plain data types and math helpers shared by every engine package.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA8 pixel data for a sampled texture pending GPU upload.
type TextureStagingData struct {
	// Pixels holds Width*Height*4 bytes, row-major, 4 bytes per pixel.
	Pixels []byte
	Width  uint32
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to the renderer defaults (repeat addressing, linear filtering).
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	Compare                                  wgpu.CompareFunction
	MaxAnisotropy                            uint16
}

// CheckerTexture generates a size x size RGBA8 checkerboard alternating between two colors
// every cell pixels. Used as the procedural albedo map for stage materials.
//
// Parameters:
//   - size: texture edge length in pixels
//   - cell: checker cell edge length in pixels (clamped to at least 1)
//   - a, b: the two RGBA colors
//
// Returns:
//   - TextureStagingData: the staged pixels
func CheckerTexture(size, cell uint32, a, b [4]uint8) TextureStagingData {
	if cell == 0 {
		cell = 1
	}
	pixels := make([]byte, size*size*4)
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			c := a
			if ((x/cell)+(y/cell))%2 == 1 {
				c = b
			}
			copy(pixels[(y*size+x)*4:], c[:])
		}
	}
	return TextureStagingData{Pixels: pixels, Width: size, Height: size}
}
