package cluster

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUClusterUniformsSize is the byte size of the ClusterUniforms block.
const GPUClusterUniformsSize = 128

// TileMappingSource is the WGSL definition of ClusterUniforms and the tile mapping functions
// (tile_of, slice_of, cluster_index). The clustering pass and both shading passes prepend it,
// so all of them derive a pixel's cluster from the same code.
//
//go:embed assets/tile_mapping.wgsl
var TileMappingSource string

// ClusterSource is the light_cluster compute shader. Requires light.GPULightSource and
// TileMappingSource in front.
//
//go:embed assets/cluster.wgsl
var ClusterSource string

// GPUClusterUniforms is the uniform block shared by the clustering and shading passes.
// Matches the WGSL ClusterUniforms struct layout exactly (see TileMappingSource).
// Size: 128 bytes.
//
// Layout:
//
//	mat4x4<f32> view         (64 bytes, offset   0)
//	vec4<f32>   proj_params  (16 bytes, offset  64)  P00, P11, near, far
//	vec4<f32>   viewport     (16 bytes, offset  80)  width, height
//	vec4<u32>   grid         (16 bytes, offset  96)  tiles x, tiles y, slices, capacity
//	vec4<f32>   tile         (16 bytes, offset 112)  tile width, tile height, log(far/near)
type GPUClusterUniforms struct {
	View       [16]float32
	ProjParams [4]float32
	Viewport   [4]float32
	Grid       [4]uint32
	Tile       [4]float32
}

// NewGPUClusterUniforms packs the per-frame clustering parameters.
//
// Parameters:
//   - grid: the current tile grid
//   - capacity: the per-cluster light capacity
//   - view: the camera view matrix
//   - proj: the camera projection matrix
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - GPUClusterUniforms: the packed uniforms
func NewGPUClusterUniforms(grid Grid, capacity uint32, view, proj mgl32.Mat4, near, far float32) GPUClusterUniforms {
	var logRatio float32
	if near > 0 && far > near {
		logRatio = float32(math.Log(float64(far / near)))
	}
	return GPUClusterUniforms{
		View:       view,
		ProjParams: [4]float32{proj[0], proj[5], near, far},
		Viewport:   [4]float32{float32(grid.Width), float32(grid.Height), 0, 0},
		Grid:       [4]uint32{grid.TilesX, grid.TilesY, grid.Slices, capacity},
		Tile:       [4]float32{float32(grid.TileWidth), float32(grid.TileHeight), logRatio, 0},
	}
}

// Size returns the size of the GPUClusterUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (128)
func (u *GPUClusterUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPUClusterUniforms into a 128-byte little-endian buffer suitable for
// GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer ready for GPU upload
func (u *GPUClusterUniforms) Marshal() []byte {
	buf := make([]byte, GPUClusterUniformsSize)
	off := 0
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.View[i]))
		off += 4
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.ProjParams[i]))
		off += 4
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Viewport[i]))
		off += 4
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[off:off+4], u.Grid[i])
		off += 4
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Tile[i]))
		off += 4
	}
	return buf
}
