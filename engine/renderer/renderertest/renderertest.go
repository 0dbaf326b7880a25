// Package renderertest provides a recording Renderer for tests of the systems and strategies
// that drive the GPU. No device is created; every call is recorded for inspection.
package renderertest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Dispatch is one recorded compute dispatch.
type Dispatch struct {
	PipelineKey    string
	BindGroups     []bind_group_provider.BindGroupProvider
	WorkGroupCount [3]uint32
}

// Draw is one recorded draw call.
type Draw struct {
	PipelineKey   string
	Mesh          bind_group_provider.BindGroupProvider
	InstanceCount uint32
	BindGroups    []bind_group_provider.BindGroupProvider
	Pass          int // index into Passes
}

// BindGroupInit is one recorded InitBindGroup call.
type BindGroupInit struct {
	Provider   bind_group_provider.BindGroupProvider
	Descriptor wgpu.BindGroupLayoutDescriptor
	Sizes      map[int]uint64
}

// Fake is a Renderer that records calls instead of talking to a GPU. Methods not listed on
// Fake panic through the nil embedded interface, which flags unexpected use in a test.
type Fake struct {
	renderer.Renderer

	mu sync.Mutex

	Width, Height int

	Pipelines      map[string]pipeline.Pipeline
	BindGroupInits []BindGroupInit
	Writes         []bind_group_provider.BufferWrite
	Dispatches     []Dispatch
	Passes         []renderer.RenderPass
	Draws          []Draw
	Targets        []*renderer.RenderTarget
	Samplers       int
	Textures       int
	Meshes         int
	Frames         int
	Presented      int

	// BeginFrameErr and EndFrameErr are returned by BeginFrame and EndFrame when set.
	BeginFrameErr error
	EndFrameErr   error

	inFrame bool
	inPass  bool
}

// NewFake creates a Fake with the given surface size.
//
// Parameters:
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//
// Returns:
//   - *Fake: the recording renderer
func NewFake(width, height int) *Fake {
	return &Fake{
		Width:     width,
		Height:    height,
		Pipelines: make(map[string]pipeline.Pipeline),
	}
}

func (f *Fake) Pipeline(key string) pipeline.Pipeline {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Pipelines[key]
}

func (f *Fake) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pipelines {
		if _, ok := f.Pipelines[p.PipelineKey()]; ok {
			continue
		}
		// Reflect the real WGSL the way the wgpu backend does before caching.
		if err := pipeline.CheckLayouts(p); err != nil {
			return fmt.Errorf("failed to register pipeline %s: %w", p.PipelineKey(), err)
		}
		f.Pipelines[p.PipelineKey()] = p
	}
	return nil
}

func (f *Fake) Resize(width, height int) {
	f.Width, f.Height = width, height
}

func (f *Fake) SurfaceSize() (int, int) {
	return f.Width, f.Height
}

func (f *Fake) SurfaceFormat() wgpu.TextureFormat {
	return wgpu.TextureFormatBGRA8Unorm
}

func (f *Fake) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	f.Meshes++
	provider.SetIndexCount(indexCount)
	return nil
}

// InitBindGroup records the call and stores an empty bind group marker so callers can tell a
// built group from an invalidated one. No buffers are created.
func (f *Fake) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BindGroupInits = append(f.BindGroupInits, BindGroupInit{
		Provider:   provider,
		Descriptor: descriptor,
		Sizes:      bufferSizeOverrides,
	})
	return nil
}

func (f *Fake) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	f.Textures++
	return nil
}

func (f *Fake) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	f.Samplers++
	return nil
}

func (f *Fake) CreateRenderTarget(label string, width, height uint32, format wgpu.TextureFormat) (*renderer.RenderTarget, error) {
	t := &renderer.RenderTarget{Label: label, Format: format, Width: width, Height: height}
	f.Targets = append(f.Targets, t)
	return t, nil
}

func (f *Fake) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes = append(f.Writes, writes...)
}

func (f *Fake) BeginFrame() error {
	if f.BeginFrameErr != nil {
		return f.BeginFrameErr
	}
	f.inFrame = true
	f.Frames++
	return nil
}

func (f *Fake) DispatchCompute(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	if err := f.check(pipelineKey); err != nil {
		return err
	}
	if f.inPass {
		return fmt.Errorf("dispatch %q inside a render pass", pipelineKey)
	}
	f.Dispatches = append(f.Dispatches, Dispatch{PipelineKey: pipelineKey, BindGroups: bindGroups, WorkGroupCount: workGroupCount})
	return nil
}

func (f *Fake) BeginRenderPass(pass renderer.RenderPass) error {
	if !f.inFrame {
		return renderer.ErrNoFrame
	}
	f.EndRenderPass()
	f.Passes = append(f.Passes, pass)
	f.inPass = true
	return nil
}

func (f *Fake) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	if err := f.check(pipelineKey); err != nil {
		return err
	}
	if !f.inPass {
		return renderer.ErrNoFrame
	}
	f.Draws = append(f.Draws, Draw{
		PipelineKey:   pipelineKey,
		Mesh:          meshProvider,
		InstanceCount: instanceCount,
		BindGroups:    bindGroups,
		Pass:          len(f.Passes) - 1,
	})
	return nil
}

func (f *Fake) EndRenderPass() {
	f.inPass = false
}

func (f *Fake) EndFrame() error {
	f.EndRenderPass()
	f.inFrame = false
	return f.EndFrameErr
}

func (f *Fake) Present() {
	f.Presented++
}

func (f *Fake) SetPresentMode(mode renderer.PresentMode) {}

func (f *Fake) Release() {}

// WritesTo returns the recorded writes targeting provider at binding.
//
// Parameters:
//   - provider: the provider written to
//   - binding: the binding index
//
// Returns:
//   - []bind_group_provider.BufferWrite: the matching writes in order
func (f *Fake) WritesTo(provider bind_group_provider.BindGroupProvider, binding int) []bind_group_provider.BufferWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []bind_group_provider.BufferWrite
	for _, w := range f.Writes {
		if w.Provider == provider && w.Binding == binding {
			out = append(out, w)
		}
	}
	return out
}

// InitsOf returns the recorded InitBindGroup calls for provider.
func (f *Fake) InitsOf(provider bind_group_provider.BindGroupProvider) []BindGroupInit {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []BindGroupInit
	for _, b := range f.BindGroupInits {
		if b.Provider == provider {
			out = append(out, b)
		}
	}
	return out
}

func (f *Fake) check(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Pipelines[key]; !ok {
		return fmt.Errorf("%w: %q", renderer.ErrPipelineNotFound, key)
	}
	if !f.inFrame {
		return renderer.ErrNoFrame
	}
	return nil
}
