package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the implementation of the BindGroupProvider interface.
type bindGroupProvider struct {
	label string

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout

	// buffers, textureViews and samplers hold every resource bound at a binding index.
	buffers      map[int]*wgpu.Buffer
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler

	// shared marks bindings whose resource is owned elsewhere (another provider or a render
	// target). Release leaves those alone.
	sharedBuffers map[int]bool
	sharedViews   map[int]bool

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// BindGroupProvider owns (or borrows) the GPU resources behind one bind group, and optionally
// the vertex and index buffers of a mesh. Providers are populated by the renderer's Init*
// methods and handed to DispatchCompute and DrawCall.
type BindGroupProvider interface {
	// Release releases every owned GPU resource. Shared buffers and texture views are skipped.
	Release()

	// InvalidateBindGroup releases only the bind group so that the next InitBindGroup rebuilds
	// it against the provider's current resources. The layout and buffers are kept.
	InvalidateBindGroup()

	// Label returns the debug label used for GPU objects created for this provider.
	Label() string

	BindGroup() *wgpu.BindGroup
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer bound at binding, or nil.
	Buffer(binding int) *wgpu.Buffer
	Buffers() map[int]*wgpu.Buffer

	// TextureView returns the texture view bound at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler bound at binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() int

	SetBindGroup(bg *wgpu.BindGroup)
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores a buffer this provider owns.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// ShareBuffer stores a buffer owned by someone else, such as the light set buffer that
	// the simulation, clustering and shading bind groups all read.
	ShareBuffer(binding int, buf *wgpu.Buffer)

	// ReleaseBuffer releases the owned buffer at binding and clears the slot so the next
	// InitBindGroup allocates a fresh one. Shared buffers are only cleared.
	ReleaseBuffer(binding int)

	SetTextureView(binding int, tv *wgpu.TextureView)

	// ShareTextureView stores a texture view owned elsewhere, such as a G-buffer target.
	ShareTextureView(binding int, tv *wgpu.TextureView)

	SetSampler(binding int, s *wgpu.Sampler)
	SetVertexBuffer(buf *wgpu.Buffer)
	SetIndexBuffer(buf *wgpu.Buffer)
	SetIndexCount(count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new empty BindGroupProvider.
//
// Parameters:
//   - label: debug label used for every GPU object created for this provider
//   - options: variadic list of BindGroupProviderOption functions
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:         label,
		buffers:       make(map[int]*wgpu.Buffer),
		textureViews:  make(map[int]*wgpu.TextureView),
		samplers:      make(map[int]*wgpu.Sampler),
		sharedBuffers: make(map[int]bool),
		sharedViews:   make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	delete(p.sharedBuffers, binding)
}

func (p *bindGroupProvider) ShareBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	p.sharedBuffers[binding] = true
}

func (p *bindGroupProvider) ReleaseBuffer(binding int) {
	if buf := p.buffers[binding]; buf != nil && !p.sharedBuffers[binding] {
		buf.Release()
	}
	delete(p.buffers, binding)
	delete(p.sharedBuffers, binding)
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
	delete(p.sharedViews, binding)
}

func (p *bindGroupProvider) ShareTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
	p.sharedViews[binding] = true
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) InvalidateBindGroup() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) Release() {
	p.InvalidateBindGroup()
	for i, tv := range p.textureViews {
		if tv != nil && !p.sharedViews[i] {
			tv.Release()
		}
		delete(p.textureViews, i)
		delete(p.sharedViews, i)
	}
	for i, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for i := range p.buffers {
		p.ReleaseBuffer(i)
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
