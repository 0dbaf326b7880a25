package model

import (
	"encoding/binary"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
)

// primitiveCount is an atomic counter used to generate unique mesh provider labels.
var primitiveCount atomic.Uint64

// primitive is the implementation of the Primitive interface.
type primitive struct {
	name                  string
	materialIndex         int
	meshProvider          bind_group_provider.BindGroupProvider
	boundingRadius        float32
	vertexData, indexData []byte
	indexCount            int
}

// Primitive is one drawable piece of a Model: a vertex and index buffer drawn with a
// single material. Its MeshProvider receives the GPU buffers when the geometry pass
// uploads it.
type Primitive interface {
	// Name retrieves the primitive identifier.
	Name() string

	// MaterialIndex returns the index of the owning model's material this primitive uses.
	MaterialIndex() int

	// MeshProvider retrieves the BindGroupProvider holding GPU mesh resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// VertexData returns the raw vertex data for this primitive.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the raw uint32 index data for this primitive.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the primitive.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BoundingRadius returns the maximum vertex distance from the model origin.
	BoundingRadius() float32
}

// NewPrimitive marshals a mesh into a GPU-ready Primitive.
//
// Parameters:
//   - mesh: the source geometry
//
// Returns:
//   - Primitive: the primitive, buffers not yet uploaded
func NewPrimitive(mesh Mesh) Primitive {
	vertexData := make([]byte, len(mesh.Vertices)*GPUVertexSize)
	for i := range mesh.Vertices {
		mesh.Vertices[i].marshalInto(vertexData[i*GPUVertexSize:])
	}
	indexData := make([]byte, len(mesh.Indices)*4)
	for i, idx := range mesh.Indices {
		binary.LittleEndian.PutUint32(indexData[i*4:], idx)
	}
	return &primitive{
		name:           mesh.Name,
		materialIndex:  mesh.MaterialIndex,
		meshProvider:   bind_group_provider.NewBindGroupProvider("mesh_" + mesh.Name + "_" + strconv.FormatUint(primitiveCount.Add(1), 10)),
		boundingRadius: ComputeBoundingRadius(mesh.Vertices),
		vertexData:     vertexData,
		indexData:      indexData,
		indexCount:     len(mesh.Indices),
	}
}

func (p *primitive) Name() string {
	return p.name
}

func (p *primitive) MaterialIndex() int {
	return p.materialIndex
}

func (p *primitive) MeshProvider() bind_group_provider.BindGroupProvider {
	return p.meshProvider
}

func (p *primitive) VertexData() []byte {
	return p.vertexData
}

func (p *primitive) IndexData() []byte {
	return p.indexData
}

func (p *primitive) IndexCount() int {
	return p.indexCount
}

func (p *primitive) BoundingRadius() float32 {
	return p.boundingRadius
}

// model is the implementation of the Model interface.
type model struct {
	name       string
	primitives []Primitive
}

// Model defines the interface for renderable geometry: a named list of primitives, each
// tagged with the material it is drawn with. Materials themselves live on the scene node
// so one Model can be shared by nodes with different looks.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Primitives returns the primitives in creation order.
	//
	// Returns:
	//   - []Primitive: the primitives
	Primitives() []Primitive

	// PrimitivesOf returns the primitives drawn with the given material, in creation order.
	//
	// Parameters:
	//   - materialIndex: the material index
	//
	// Returns:
	//   - []Primitive: the matching primitives
	PrimitivesOf(materialIndex int) []Primitive

	// BoundingRadius returns the largest primitive bounding radius.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Primitives() []Primitive {
	return m.primitives
}

func (m *model) PrimitivesOf(materialIndex int) []Primitive {
	var out []Primitive
	for _, p := range m.primitives {
		if p.MaterialIndex() == materialIndex {
			out = append(out, p)
		}
	}
	return out
}

func (m *model) BoundingRadius() float32 {
	var r float32
	for _, p := range m.primitives {
		r = max(r, p.BoundingRadius())
	}
	return r
}
