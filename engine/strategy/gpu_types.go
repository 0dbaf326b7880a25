package strategy

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// ClusteredLightingSource is the clustered shading function shared by the forward+ fragment
// stage and the deferred shading pass. Requires light.GPULightSource and
// cluster.TileMappingSource in front and the lighting bindings declared by the includer.
//
//go:embed assets/clustered_lighting.wgsl
var ClusteredLightingSource string

// ForwardPlusSource is the forward+ geometry and fused shading shader.
//
//go:embed assets/forward_plus.wgsl
var ForwardPlusSource string

// GBufferSource is the deferred geometry pass shader.
//
//go:embed assets/gbuffer.wgsl
var GBufferSource string

// DeferredShadingSource is the full-screen deferred shading shader.
//
//go:embed assets/deferred_shading.wgsl
var DeferredShadingSource string

const (
	// GBufferFormat is the format of the three G-buffer color targets.
	GBufferFormat = wgpu.TextureFormatRGBA16Float

	// DepthFormat is the format of the G-buffer depth target.
	DepthFormat = wgpu.TextureFormatDepth24Plus

	// GBufferTargetCount is the number of G-buffer color targets: position, normal, albedo.
	GBufferTargetCount = 3

	gbufferSamplerBinding = GBufferTargetCount
)

// quadVertices are the clip-space corners of the full-screen quad, two floats each.
var quadVertices = []float32{
	-1, -1,
	1, -1,
	-1, 1,
	1, 1,
}

// quadIndices draw the quad as two counter-clockwise triangles.
var quadIndices = []uint32{0, 1, 2, 2, 1, 3}

// QuadVertexLayout is the vertex layout of the full-screen quad.
//
// Returns:
//   - wgpu.VertexBufferLayout: one Float32x2 position at location 0
func QuadVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 8,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		},
	}
}

// CameraLayout returns the camera uniform bind group layout.
func CameraLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "camera",
		Entries: []wgpu.BindGroupLayoutEntry{
			bind_group_provider.BufferEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform, camera.GPUCameraUniformSize),
		},
	}
}

// ObjectLayout returns the per-object transform bind group layout.
func ObjectLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "object",
		Entries: []wgpu.BindGroupLayoutEntry{
			bind_group_provider.BufferEntry(0, wgpu.ShaderStageVertex, wgpu.BufferBindingTypeUniform, model.GPUModelDataSize),
		},
	}
}

// LightingLayout returns the bind group layout through which shading reads the clustering
// results. Every buffer in it is owned by the light and cluster systems.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: light set at 0, clusters at 1, cluster uniforms at 2
func LightingLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "clustered lighting",
		Entries: []wgpu.BindGroupLayoutEntry{
			bind_group_provider.BufferEntry(0, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeReadOnlyStorage, light.GPULightSetHeaderSize+light.GPULightSize),
			bind_group_provider.BufferEntry(1, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeReadOnlyStorage, 4),
			bind_group_provider.BufferEntry(2, wgpu.ShaderStageFragment, wgpu.BufferBindingTypeUniform, cluster.GPUClusterUniformsSize),
		},
	}
}

// GBufferInputsLayout returns the layout through which the shading pass samples the G-buffer.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: three textures at 0..2 and a sampler at 3
func GBufferInputsLayout() wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, GBufferTargetCount+1)
	for i := range GBufferTargetCount {
		entries = append(entries, bind_group_provider.TextureEntry(uint32(i), wgpu.ShaderStageFragment))
	}
	entries = append(entries, bind_group_provider.SamplerEntry(gbufferSamplerBinding, wgpu.ShaderStageFragment))
	return wgpu.BindGroupLayoutDescriptor{
		Label:   "gbuffer inputs",
		Entries: entries,
	}
}

// gbufferSampler is the linear clamp-to-edge sampler of the shading pass.
var gbufferSampler = common.SamplerStagingData{
	AddressModeU: wgpu.AddressModeClampToEdge,
	AddressModeV: wgpu.AddressModeClampToEdge,
	AddressModeW: wgpu.AddressModeClampToEdge,
	MagFilter:    wgpu.FilterModeLinear,
	MinFilter:    wgpu.FilterModeLinear,
}
