package strategy

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestPipelinesMatchShaders(t *testing.T) {
	tests := []struct {
		name      string
		build     func() pipeline.Pipeline
		shading   bool // reads the cluster buffer through the shared tile mapping
		offscreen int
	}{
		{"forward+", forwardPlusPipeline, true, 0},
		{"gbuffer", gbufferPipeline, false, GBufferTargetCount},
		{"deferred shading", deferredShadingPipeline, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.build()
			if err := pipeline.CheckLayouts(p); err != nil {
				t.Fatalf("CheckLayouts() error = %v", err)
			}

			vs := p.Shader(shader.ShaderTypeVertex)
			fs := p.Shader(shader.ShaderTypeFragment)
			if vs.EntryPoint() != "vs_main" || fs.EntryPoint() != "fs_main" {
				t.Fatalf("entry points = %q, %q", vs.EntryPoint(), fs.EntryPoint())
			}

			// Every declared binding is used by the shaders, and nothing else is.
			reflected := shader.MergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
			declared := p.BindGroupLayouts()
			if len(reflected) != len(declared) {
				t.Fatalf("shaders use %d groups, pipeline declares %d", len(reflected), len(declared))
			}
			for g, desc := range declared {
				if got := len(reflected[g].Entries); got != len(desc.Entries) {
					t.Fatalf("group %d (%s): shaders use %d bindings, layout has %d", g, desc.Label, got, len(desc.Entries))
				}
			}

			if got := strings.Contains(fs.Source(), cluster.TileMappingSource); got != tt.shading {
				t.Fatalf("fragment source includes the tile mapping = %v, want %v", got, tt.shading)
			}
			if len(p.ColorTargetFormats()) != tt.offscreen {
				t.Fatalf("color targets = %d, want %d", len(p.ColorTargetFormats()), tt.offscreen)
			}
		})
	}
}

func TestLightingLayoutMatchesClusterBuffers(t *testing.T) {
	// Shading binds the buffers the clustering pass writes, read-only.
	shading := LightingLayout().Entries
	clustering := cluster.ClusterLayout().Entries
	if len(shading) != len(clustering) {
		t.Fatalf("lighting layout has %d bindings, cluster layout %d", len(shading), len(clustering))
	}
	for i := range shading {
		if shading[i].Binding != clustering[i].Binding {
			t.Fatalf("binding %d maps to %d", clustering[i].Binding, shading[i].Binding)
		}
		if shading[i].Buffer.Type == wgpu.BufferBindingTypeStorage {
			t.Fatalf("binding %d is writable in the shading passes", shading[i].Binding)
		}
	}
}

func TestStagePipelinesWinding(t *testing.T) {
	for _, p := range []pipeline.Pipeline{forwardPlusPipeline(), gbufferPipeline()} {
		if p.CullMode() != wgpu.CullModeBack || p.FrontFace() != wgpu.FrontFaceCCW {
			t.Fatalf("%s: cull %v front %v, want back-face culling of CCW meshes", p.PipelineKey(), p.CullMode(), p.FrontFace())
		}
	}
	if p := deferredShadingPipeline(); p.Topology() != wgpu.PrimitiveTopologyTriangleList || p.DepthTestEnabled() {
		t.Fatal("the full-screen pass draws an indexed triangle list without depth testing")
	}
}
