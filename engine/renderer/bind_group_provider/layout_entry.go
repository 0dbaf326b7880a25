package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferEntry builds a buffer bind group layout entry.
//
// Parameters:
//   - binding: the binding index
//   - visibility: the shader stages that access the buffer
//   - bufferType: uniform, storage or read-only storage
//   - minSize: the minimum binding size, also the default allocation size in InitBindGroup
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry
func BufferEntry(binding uint32, visibility wgpu.ShaderStage, bufferType wgpu.BufferBindingType, minSize uint64) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}
	entry.Buffer.Type = bufferType
	entry.Buffer.MinBindingSize = minSize
	return entry
}

// TextureEntry builds a single-sampled 2D float texture layout entry.
//
// Parameters:
//   - binding: the binding index
//   - visibility: the shader stages that sample the texture
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry
func TextureEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}
	entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
	entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	return entry
}

// SamplerEntry builds a filtering sampler layout entry.
//
// Parameters:
//   - binding: the binding index
//   - visibility: the shader stages that use the sampler
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry
func SamplerEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}
	entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	return entry
}
