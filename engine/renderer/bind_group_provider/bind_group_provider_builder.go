package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroupLayout sets a pre-built bind group layout for this provider.
//
// Parameters:
//   - bgl: the bind group layout to use
//
// Returns:
//   - BindGroupProviderOption: a function that sets the layout
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
	}
}

// WithSharedBuffer binds a buffer owned by another provider at the given binding.
// The buffer is not released with this provider.
//
// Parameters:
//   - binding: the binding index
//   - buf: the borrowed buffer
//
// Returns:
//   - BindGroupProviderOption: a function that shares the buffer
func WithSharedBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.ShareBuffer(binding, buf)
	}
}
