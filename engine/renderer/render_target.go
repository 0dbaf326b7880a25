package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RenderTarget is an offscreen single-sampled texture used as a render pass attachment
// and, for color formats, sampled by later passes.
type RenderTarget struct {
	Label  string
	Format wgpu.TextureFormat
	Width  uint32
	Height uint32

	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

// Release frees the texture and view. Safe to call on a nil target.
func (t *RenderTarget) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

// IsDepth reports whether the target has a depth format.
func (t *RenderTarget) IsDepth() bool {
	return isDepthFormat(t.Format)
}

// RenderPass describes the attachments of one render pass within a frame.
//
// With no Colors the pass targets the swapchain (through the MSAA texture when enabled)
// together with the main depth buffer. With Colors set, the pass renders into those
// offscreen targets and uses Depth when it is non-nil.
type RenderPass struct {
	Label      string
	Colors     []*RenderTarget
	Depth      *RenderTarget
	ClearColor wgpu.Color
}

func isDepthFormat(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatDepth24Plus, wgpu.TextureFormatDepth32Float:
		return true
	}
	return false
}
