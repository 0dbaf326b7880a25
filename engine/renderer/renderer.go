package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer is the explicit GPU context handed to every system and strategy at construction.
// It owns the device, the surface and the pipeline cache, creates GPU resources on behalf of
// bind group providers, and records every pass of a frame into one command encoder.
//
// A frame is recorded as:
//
//	BeginFrame
//	DispatchCompute...               (light simulation, clustering)
//	BeginRenderPass / DrawCall... / EndRenderPass   (one or more passes)
//	EndFrame
//	Present
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU pipeline objects (render or compute) for each pipeline and
	// caches them by PipelineKey. Keys that are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface for a new size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SurfaceSize returns the current surface size in pixels.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	SurfaceSize() (int, int)

	// SurfaceFormat returns the swapchain texture format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures and samplers must be initialized via InitTextureView
	// and InitSampler before calling this method. Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags to OR into the derived usage, keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes to use instead of MinBindingSize, keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture from staging data and stores the resulting texture view
	// on the given BindGroupProvider at the specified binding index.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the pixel data and dimensions for the texture
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler from staging data and stores it on the given BindGroupProvider
	// at the specified binding index.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// CreateRenderTarget creates an offscreen single-sampled attachment.
	//
	// Parameters:
	//   - label: the debug label
	//   - width: the width in pixels
	//   - height: the height in pixels
	//   - format: the texture format
	//
	// Returns:
	//   - *RenderTarget: the created target, owned by the caller
	//   - error: an error if creation fails
	CreateRenderTarget(label string, width, height uint32, format wgpu.TextureFormat) (*RenderTarget, error)

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and opens the frame command encoder.
	//
	// Returns:
	//   - error: ErrSurfaceLost or ErrDeviceLost when the frame cannot start
	BeginFrame() error

	// DispatchCompute records a compute pass using the cached pipeline for pipelineKey.
	//
	// Parameters:
	//   - pipelineKey: the key of a registered compute pipeline
	//   - bindGroups: providers bound at group index 0..n-1
	//   - workGroupCount: the number of workgroups in x, y and z
	//
	// Returns:
	//   - error: ErrPipelineNotFound or ErrNoFrame
	DispatchCompute(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// BeginRenderPass opens a render pass within the current frame.
	//
	// Parameters:
	//   - pass: the pass attachments; no colors means the swapchain
	//
	// Returns:
	//   - error: ErrNoFrame when called outside a frame
	BeginRenderPass(pass RenderPass) error

	// DrawCall encodes a single instanced draw command within the open render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: a slice of BindGroupProviders whose BindGroups will be set on the render pass
	//
	// Returns:
	//   - error: ErrPipelineNotFound or ErrNoFrame
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndRenderPass closes the open render pass.
	EndRenderPass()

	// EndFrame finishes and submits the frame's command buffer.
	// Does not present the surface; call Present afterwards.
	//
	// Returns:
	//   - error: ErrDeviceLost when the command buffer cannot be finished
	EndFrame() error

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Release frees all GPU objects owned by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// SurfaceSource provides the platform surface and its initial size. The glfw window
// implements it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// NewRenderer creates a new Renderer instance bound to the given window's surface.
// Adapter and device bring-up failures panic, since there is no session yet to report them to.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - source: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, source SurfaceSource, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(source.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(source.Width(), source.Height())
	return r
}

// newRendererWithBackend wires a Renderer around an existing backend.
func newRendererWithBackend(backend RendererBackend) *renderer {
	return &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backend:       backend,
	}
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := r.backend.RegisterComputePipeline(p); err != nil {
				return fmt.Errorf("register compute pipeline %q: %w", key, err)
			}
		case pipeline.PipelineTypeRender:
			if err := r.backend.RegisterRenderPipeline(p); err != nil {
				return fmt.Errorf("register render pipeline %q: %w", key, err)
			}
		}
		r.pipelineCache[key] = p
		common.Logger().Debug("pipeline registered", "key", key)
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) CreateRenderTarget(label string, width, height uint32, format wgpu.TextureFormat) (*RenderTarget, error) {
	return r.backend.CreateRenderTarget(label, width, height, format)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	return r.backend.DispatchCompute(p, bindGroups, workGroupCount)
}

func (r *renderer) BeginRenderPass(pass RenderPass) error {
	return r.backend.BeginRenderPass(pass)
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	return r.backend.DrawCall(p, meshProvider, instanceCount, bindGroups)
}

func (r *renderer) EndRenderPass() {
	r.backend.EndRenderPass()
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.backend.Release()
}

func (r *renderer) lookup(key string) (pipeline.Pipeline, error) {
	r.mu.Lock()
	p, exists := r.pipelineCache[key]
	r.mu.Unlock()
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrPipelineNotFound, key)
	}
	return p, nil
}
