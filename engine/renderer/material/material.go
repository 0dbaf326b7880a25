package material

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	paramsBinding  = 0
	textureBinding = 1
	samplerBinding = 2
)

// whiteTexture is the 1x1 albedo bound when a material has no diffuse texture.
var whiteTexture = common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}

// material is the implementation of the Material interface.
type material struct {
	mu sync.Mutex

	name              string
	baseColor         mgl32.Vec4
	specular          float32
	diffuseTexture    *common.TextureStagingData
	bindGroupProvider bind_group_provider.BindGroupProvider
	initialized       bool
}

// Material defines the interface for a render material, encapsulating surface
// properties, texture references, and GPU resource bindings needed for draw calls.
//
// Surface properties (name, base color, specular strength, texture) are set at
// construction and are read-only through this interface. GPU resources are created once by
// Initialize and bound at the material group of every geometry pipeline.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo RGBA color of the material, multiplied with the texture.
	//
	// Returns:
	//   - mgl32.Vec4: the base color as RGBA values
	BaseColor() mgl32.Vec4

	// Specular retrieves the Blinn-Phong specular strength in [0, 1].
	Specular() float32

	// DiffuseTexture retrieves the albedo texture, or nil if none is set.
	//
	// Returns:
	//   - *common.TextureStagingData: the diffuse texture, or nil
	DiffuseTexture() *common.TextureStagingData

	// Params returns the GPU uniform of the material.
	Params() GPUMaterialParams

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Initialize uploads the texture, creates the sampler and parameter buffer and builds the
	// material bind group. Calling it again is a no-op.
	//
	// Parameters:
	//   - gpu: the renderer creating the resources
	//
	// Returns:
	//   - error: an error if any resource could not be created
	Initialize(gpu renderer.Renderer) error

	// Release frees the GPU resources. The material can be initialized again afterwards.
	Release()
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: mgl32.Vec4{1, 1, 1, 1},
		specular:  0.25,
	}
	for _, opt := range options {
		opt(m)
	}
	m.bindGroupProvider = bind_group_provider.NewBindGroupProvider("material_" + m.name)
	return m
}

// Layout returns the bind group layout every material shares: the parameter uniform, the
// albedo texture and its sampler, visible to the fragment stage.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the material group layout
func Layout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "material",
		Entries: []wgpu.BindGroupLayoutEntry{
			bind_group_provider.BufferEntry(paramsBinding, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform, GPUMaterialParamsSize),
			bind_group_provider.TextureEntry(textureBinding, wgpu.ShaderStageFragment),
			bind_group_provider.SamplerEntry(samplerBinding, wgpu.ShaderStageFragment),
		},
	}
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() mgl32.Vec4 {
	return m.baseColor
}

func (m *material) Specular() float32 {
	return m.specular
}

func (m *material) DiffuseTexture() *common.TextureStagingData {
	return m.diffuseTexture
}

func (m *material) Params() GPUMaterialParams {
	p := GPUMaterialParams{BaseColor: m.baseColor, Specular: m.specular}
	if m.diffuseTexture != nil {
		p.Textured = 1
	}
	return p
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) Initialize(gpu renderer.Renderer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}

	tex := whiteTexture
	if m.diffuseTexture != nil {
		tex = *m.diffuseTexture
	}
	if err := gpu.InitTextureView(m.bindGroupProvider, textureBinding, tex); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	if err := gpu.InitSampler(m.bindGroupProvider, samplerBinding, common.SamplerStagingData{}); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	if err := gpu.InitBindGroup(m.bindGroupProvider, Layout(), nil, nil); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	params := m.Params()
	gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: m.bindGroupProvider,
		Binding:  paramsBinding,
		Data:     params.Marshal(),
	}})
	m.initialized = true
	return nil
}

func (m *material) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindGroupProvider.Release()
	m.initialized = false
}
