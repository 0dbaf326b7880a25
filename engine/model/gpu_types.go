package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUVertexSize is the byte stride of one GPUVertex.
const GPUVertexSize = 32

// GPUModelDataSize is the byte size of the ModelData block.
const GPUModelDataSize = 128

// FrontFace is the winding of front-facing triangles in every mesh this package builds.
const FrontFace = wgpu.FrontFaceCCW

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for static mesh pipelines.
// Matches GPUVertex layout exactly (32 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 32 bytes, no padding required.
type GPUVertex struct {
	Position mgl32.Vec3 // offset  0: vertex position in model space (12 bytes)
	Normal   mgl32.Vec3 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord mgl32.Vec2 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	g.marshalInto(buf)
	return buf
}

func (g *GPUVertex) marshalInto(buf []byte) {
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(buf[12+i*4:], math.Float32bits(g.Normal[i]))
	}
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.TexCoord[1]))
}

// VertexLayout returns the vertex buffer layout matching GPUVertex, for slot 0 of every
// geometry pipeline.
//
// Returns:
//   - wgpu.VertexBufferLayout: position at location 0, normal at 1, uv at 2
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUVertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of
// GPUVertex positions. The radius is the maximum distance from the origin
// across all vertices in the slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		if d := v.Position.LenSqr(); d > maxDistSq {
			maxDistSq = d
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// GPUModelDataSource is the canonical WGSL definition of the ModelData struct for per-node transforms.
// Matches GPUModelData layout exactly (128 bytes).
//
//go:embed assets/model_data.wgsl
var GPUModelDataSource string

// GPUModelData is the GPU-aligned representation of one node's transforms.
// Matches the WGSL ModelData struct layout exactly (see GPUModelDataSource).
// Size: 128 bytes.
type GPUModelData struct {
	Model        mgl32.Mat4 // offset  0: model-to-world transform
	NormalMatrix mgl32.Mat4 // offset 64: inverse transpose of Model, upper 3x3 used
}

// NewGPUModelData builds the per-node transforms from a model matrix.
//
// Parameters:
//   - m: the model-to-world matrix
//
// Returns:
//   - GPUModelData: the model and normal matrices
func NewGPUModelData(m mgl32.Mat4) GPUModelData {
	normal := mgl32.Ident4()
	if m.Det() != 0 {
		normal = m.Inv().Transpose()
	}
	return GPUModelData{Model: m, NormalMatrix: normal}
}

// Size returns the size of the GPUModelData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUModelData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUModelData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer ready for GPU upload.
func (g *GPUModelData) Marshal() []byte {
	buf := make([]byte, GPUModelDataSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.NormalMatrix[i]))
	}
	return buf
}
