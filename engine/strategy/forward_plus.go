package strategy

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-cluster/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// ForwardPlusPipelineKey is the pipeline cache key of the forward+ geometry pass.
const ForwardPlusPipelineKey = "forward_plus"

// forwardPlus draws the scene once into the swapchain. The fragment stage finds its cluster
// from @builtin(position) and loops over that cluster's lights only.
type forwardPlus struct {
	*frameResources
	initialized bool
}

var _ Strategy = &forwardPlus{}

func forwardPlusSource() []string {
	return []string{
		light.GPULightSource,
		cluster.TileMappingSource,
		camera.GPUCameraUniformSource,
		model.GPUVertexSource,
		model.GPUModelDataSource,
		material.GPUMaterialParamsSource,
		ClusteredLightingSource,
		ForwardPlusSource,
	}
}

// forwardPlusPipeline builds the forward+ render pipeline description.
func forwardPlusPipeline() pipeline.Pipeline {
	src := forwardPlusSource()
	vs := shader.NewShader(ForwardPlusPipelineKey, shader.ShaderTypeVertex,
		shader.WithSource(src...),
		shader.WithEntryPoint("vs_main"),
		shader.WithVertexLayouts(model.VertexLayout()),
	)
	fs := shader.NewShader(ForwardPlusPipelineKey, shader.ShaderTypeFragment,
		shader.WithSource(src...),
		shader.WithEntryPoint("fs_main"),
	)
	return pipeline.NewPipeline(ForwardPlusPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBindGroupLayout(0, CameraLayout()),
		pipeline.WithBindGroupLayout(1, ObjectLayout()),
		pipeline.WithBindGroupLayout(2, material.Layout()),
		pipeline.WithBindGroupLayout(3, LightingLayout()),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithFrontFace(model.FrontFace),
	)
}

func (f *forwardPlus) Kind() Kind {
	return KindForwardPlus
}

func (f *forwardPlus) Initialize(s scene.Scene) error {
	if err := f.gpu.RegisterPipelines(forwardPlusPipeline()); err != nil {
		return fmt.Errorf("forward+: %w", err)
	}
	if err := f.initScene(s); err != nil {
		return fmt.Errorf("forward+: %w", err)
	}
	f.initialized = true
	common.Logger().Info("forward+ strategy initialized", "objects", s.Count())
	return nil
}

// Resize has nothing to do: forward+ draws straight into the swapchain and picks up the
// reallocated cluster buffer through the lighting group generation.
func (f *forwardPlus) Resize(width, height int) error {
	return nil
}

func (f *forwardPlus) RenderFrame(frame FrameState) error {
	if !f.initialized {
		return ErrNotInitialized
	}
	lighting, err := f.lightingGroup()
	if err != nil {
		return err
	}
	f.writeFrameUniforms()

	if err := f.gpu.BeginRenderPass(renderer.RenderPass{
		Label:      "forward+",
		ClearColor: f.clearColor,
	}); err != nil {
		return err
	}
	defer f.gpu.EndRenderPass()
	return f.drawScene(ForwardPlusPipelineKey, lighting)
}

func (f *forwardPlus) Release() {
	f.release()
	f.initialized = false
}
