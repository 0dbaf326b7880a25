package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrLayoutMismatch is returned when a shader binding has no matching entry in the explicit
// layout of its group.
var ErrLayoutMismatch = errors.New("shader binding does not match the pipeline layout")

// Shaders returns the shaders attached to p in vertex, fragment, compute order.
//
// Parameters:
//   - p: the pipeline
//
// Returns:
//   - []shader.Shader: the non-nil shaders of p
func Shaders(p Pipeline) []shader.Shader {
	var out []shader.Shader
	for _, t := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment, shader.ShaderTypeCompute} {
		if s := p.Shader(t); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// CheckLayouts reflects every shader of p and verifies each binding they declare against the
// explicit layout of its group. Groups without an explicit layout are not checked.
//
// Parameters:
//   - p: the pipeline to check
//
// Returns:
//   - error: a reflection error, or a wrapped ErrLayoutMismatch
func CheckLayouts(p Pipeline) error {
	explicit := p.BindGroupLayouts()
	for _, s := range Shaders(p) {
		if err := s.Reflect(); err != nil {
			return err
		}
		for g, r := range s.BindGroupLayoutDescriptors() {
			desc, ok := explicit[g]
			if !ok {
				continue
			}
			if err := CheckGroup(p.PipelineKey(), g, desc, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckGroup reports the first reflected binding of group that is missing from the explicit
// layout or bound as a different kind of resource there.
//
// Parameters:
//   - key: the pipeline key used in the error
//   - group: the group index
//   - explicit: the layout the pipeline declares
//   - reflected: the layout reflected from a shader
//
// Returns:
//   - error: nil, or a wrapped ErrLayoutMismatch
func CheckGroup(key string, group int, explicit, reflected wgpu.BindGroupLayoutDescriptor) error {
	for _, r := range reflected.Entries {
		e, ok := findEntry(explicit, r.Binding)
		if !ok {
			return fmt.Errorf("pipeline %s: %w: @group(%d) @binding(%d) missing", key, ErrLayoutMismatch, group, r.Binding)
		}
		if !sameKind(e, r) {
			return fmt.Errorf("pipeline %s: %w: @group(%d) @binding(%d) has a different resource type", key, ErrLayoutMismatch, group, r.Binding)
		}
	}
	return nil
}

func findEntry(desc wgpu.BindGroupLayoutDescriptor, binding uint32) (wgpu.BindGroupLayoutEntry, bool) {
	for _, e := range desc.Entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return wgpu.BindGroupLayoutEntry{}, false
}

// sameKind compares resource types only. Visibility is not compared: shaders built from one
// shared source reflect every global in every stage.
func sameKind(explicit, reflected wgpu.BindGroupLayoutEntry) bool {
	switch {
	case reflected.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		return explicit.Buffer.Type == reflected.Buffer.Type
	case reflected.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return explicit.Sampler.Type != wgpu.SamplerBindingTypeUndefined &&
			(explicit.Sampler.Type == wgpu.SamplerBindingTypeComparison) == (reflected.Sampler.Type == wgpu.SamplerBindingTypeComparison)
	case reflected.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		if explicit.Texture.ViewDimension != reflected.Texture.ViewDimension || explicit.Texture.Multisampled != reflected.Texture.Multisampled {
			return false
		}
		if reflected.Texture.SampleType == wgpu.TextureSampleTypeFloat {
			return explicit.Texture.SampleType == wgpu.TextureSampleTypeFloat || explicit.Texture.SampleType == wgpu.TextureSampleTypeUnfilterableFloat
		}
		return explicit.Texture.SampleType == reflected.Texture.SampleType
	}
	return true
}
