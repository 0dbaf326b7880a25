package renderer

import (
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA)
// on the swapchain pass. Offscreen render targets are always single-sampled.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// RendererBackend is the contract between the Renderer front end and a concrete GPU API.
// All recording calls are made from the single render goroutine between BeginFrame and EndFrame.
type RendererBackend interface {
	// ConfigureSurface (re)configures the swapchain and recreates the MSAA and depth
	// attachments for the new size. Zero sizes are ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SurfaceSize returns the size the surface was last configured with.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	SurfaceSize() (int, int)

	// SurfaceFormat returns the swapchain texture format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the preferred format reported by the surface
	SurfaceFormat() wgpu.TextureFormat

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline creates the shader modules, pipeline layout and render pipeline for p.
	//
	// Parameters:
	//   - p: the pipeline holding vertex and fragment shaders and render state
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// RegisterComputePipeline creates the shader module, pipeline layout and compute pipeline for p.
	//
	// Parameters:
	//   - p: the pipeline holding the compute shader
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterComputePipeline(p pipeline.Pipeline) error

	// InitMeshBuffers creates and fills vertex and index buffers and stores them on provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffers on
	//   - vertexData: the raw vertex bytes
	//   - indexData: the raw uint32 index bytes
	//   - indexCount: the number of indices drawn per instance
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates any missing buffers for the descriptor's buffer entries and builds the
	// bind group. Texture and sampler entries must already be present on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding resources and receiving the bind group
	//   - descriptor: the layout descriptor of the group
	//   - bufferUsageOverrides: extra usage flags OR-ed in per binding (nil safe)
	//   - bufferSizeOverrides: buffer sizes replacing MinBindingSize per binding (nil safe)
	//
	// Returns:
	//   - error: an error if a resource is missing or creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView uploads RGBA8 staging pixels into a new texture and stores its view on provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the view on
	//   - bindingKey: the binding index of the texture
	//   - stagingData: the pixels and dimensions
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler from staging data and stores it on provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the sampler on
	//   - bindingKey: the binding index of the sampler
	//   - samplerStagingData: the sampler configuration, zero fields take defaults
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// CreateRenderTarget creates a single-sampled texture usable as an attachment and, for color
	// formats, as a sampled texture.
	//
	// Parameters:
	//   - label: the debug label
	//   - width: the width in pixels
	//   - height: the height in pixels
	//   - format: the texture format
	//
	// Returns:
	//   - *RenderTarget: the created target
	//   - error: an error if creation fails
	CreateRenderTarget(label string, width, height uint32, format wgpu.TextureFormat) (*RenderTarget, error)

	// WriteBuffers writes staged data into provider buffers through the queue.
	//
	// Parameters:
	//   - writes: the writes to apply in order
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and opens the frame's single command encoder.
	//
	// Returns:
	//   - error: ErrSurfaceLost or ErrDeviceLost on failure
	BeginFrame() error

	// DispatchCompute records one compute pass into the frame encoder.
	//
	// Parameters:
	//   - p: the registered compute pipeline
	//   - bindGroups: providers bound at group index 0..n-1
	//   - workGroupCount: the workgroup counts in x, y and z
	//
	// Returns:
	//   - error: ErrNoFrame when no frame is open
	DispatchCompute(p pipeline.Pipeline, bindGroups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// BeginRenderPass opens a render pass on the frame encoder.
	//
	// Parameters:
	//   - pass: the attachments of the pass
	//
	// Returns:
	//   - error: ErrNoFrame when no frame is open
	BeginRenderPass(pass RenderPass) error

	// DrawCall records an indexed, instanced draw into the open render pass.
	//
	// Parameters:
	//   - p: the registered render pipeline
	//   - meshProvider: the provider holding vertex and index buffers
	//   - instanceCount: the number of instances
	//   - bindGroups: providers bound at group index 0..n-1
	//
	// Returns:
	//   - error: ErrNoFrame when no render pass is open
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndRenderPass closes the open render pass, if any.
	EndRenderPass()

	// EndFrame finishes the frame encoder and submits it.
	//
	// Returns:
	//   - error: ErrDeviceLost if the command buffer could not be finished
	EndFrame() error

	// Present presents the acquired swapchain texture and releases the frame references.
	Present()

	// Release frees the surface attachments and the device objects.
	Release()
}
