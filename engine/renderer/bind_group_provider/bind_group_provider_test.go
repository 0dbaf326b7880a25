package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProviderLabel(t *testing.T) {
	p := NewBindGroupProvider("cluster")
	if p.Label() != "cluster" {
		t.Fatalf("Label() = %q, want %q", p.Label(), "cluster")
	}
	if p.BindGroup() != nil || p.BindGroupLayout() != nil {
		t.Fatal("new provider should not hold GPU objects")
	}
}

func TestReleaseBufferClearsSharedSlot(t *testing.T) {
	p := NewBindGroupProvider("shading")
	p.ShareBuffer(1, nil)
	if _, ok := p.Buffers()[1]; !ok {
		t.Fatal("shared binding should be tracked")
	}
	p.ReleaseBuffer(1)
	if _, ok := p.Buffers()[1]; ok {
		t.Fatal("ReleaseBuffer should clear the slot")
	}
}

func TestReleaseResetsMeshState(t *testing.T) {
	p := NewBindGroupProvider("quad")
	p.SetIndexCount(6)
	p.Release()
	if p.IndexCount() != 0 {
		t.Fatalf("IndexCount() = %d after Release, want 0", p.IndexCount())
	}
}

func TestLayoutEntryHelpers(t *testing.T) {
	buf := BufferEntry(2, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeStorage, 48)
	if buf.Binding != 2 || buf.Buffer.Type != wgpu.BufferBindingTypeStorage || buf.Buffer.MinBindingSize != 48 {
		t.Fatalf("BufferEntry() = %+v", buf)
	}
	tex := TextureEntry(0, wgpu.ShaderStageFragment)
	if tex.Texture.SampleType != wgpu.TextureSampleTypeFloat {
		t.Fatalf("TextureEntry() = %+v", tex)
	}
	samp := SamplerEntry(3, wgpu.ShaderStageFragment)
	if samp.Sampler.Type != wgpu.SamplerBindingTypeFiltering || samp.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
		t.Fatalf("SamplerEntry() = %+v", samp)
	}
}
