package strategy

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-cluster/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// GBufferPipelineKey is the pipeline cache key of the deferred geometry pass.
	GBufferPipelineKey = "gbuffer"

	// DeferredShadingPipelineKey is the pipeline cache key of the full-screen shading pass.
	DeferredShadingPipelineKey = "deferred_shading"
)

// clusteredDeferred writes position, normal and albedo into three offscreen targets, then
// shades every covered pixel in one full-screen pass with the same cluster lookup forward+
// uses.
type clusteredDeferred struct {
	*frameResources

	width, height int
	targets       []*renderer.RenderTarget
	depth         *renderer.RenderTarget

	// inputs binds the G-buffer views and the cached sampler for the shading pass.
	inputs bind_group_provider.BindGroupProvider
	quad   bind_group_provider.BindGroupProvider

	initialized bool
}

var _ Strategy = &clusteredDeferred{}

func gbufferPipeline() pipeline.Pipeline {
	src := []string{
		camera.GPUCameraUniformSource,
		model.GPUVertexSource,
		model.GPUModelDataSource,
		material.GPUMaterialParamsSource,
		GBufferSource,
	}
	vs := shader.NewShader(GBufferPipelineKey, shader.ShaderTypeVertex,
		shader.WithSource(src...),
		shader.WithEntryPoint("vs_main"),
		shader.WithVertexLayouts(model.VertexLayout()),
	)
	fs := shader.NewShader(GBufferPipelineKey, shader.ShaderTypeFragment,
		shader.WithSource(src...),
		shader.WithEntryPoint("fs_main"),
	)
	formats := make([]wgpu.TextureFormat, GBufferTargetCount)
	for i := range formats {
		formats[i] = GBufferFormat
	}
	return pipeline.NewPipeline(GBufferPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBindGroupLayout(0, CameraLayout()),
		pipeline.WithBindGroupLayout(1, ObjectLayout()),
		pipeline.WithBindGroupLayout(2, material.Layout()),
		pipeline.WithColorTargetFormats(formats...),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithFrontFace(model.FrontFace),
	)
}

func deferredShadingPipeline() pipeline.Pipeline {
	src := []string{
		light.GPULightSource,
		cluster.TileMappingSource,
		camera.GPUCameraUniformSource,
		ClusteredLightingSource,
		DeferredShadingSource,
	}
	vs := shader.NewShader(DeferredShadingPipelineKey, shader.ShaderTypeVertex,
		shader.WithSource(src...),
		shader.WithEntryPoint("vs_main"),
		shader.WithVertexLayouts(QuadVertexLayout()),
	)
	fs := shader.NewShader(DeferredShadingPipelineKey, shader.ShaderTypeFragment,
		shader.WithSource(src...),
		shader.WithEntryPoint("fs_main"),
	)
	return pipeline.NewPipeline(DeferredShadingPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBindGroupLayout(0, GBufferInputsLayout()),
		pipeline.WithBindGroupLayout(1, LightingLayout()),
		pipeline.WithBindGroupLayout(2, CameraLayout()),
		pipeline.WithTopology(wgpu.PrimitiveTopologyTriangleList),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
	)
}

func (d *clusteredDeferred) Kind() Kind {
	return KindClusteredDeferred
}

func (d *clusteredDeferred) Initialize(s scene.Scene) error {
	if err := d.gpu.RegisterPipelines(gbufferPipeline(), deferredShadingPipeline()); err != nil {
		return fmt.Errorf("deferred: %w", err)
	}
	if err := d.initScene(s); err != nil {
		return fmt.Errorf("deferred: %w", err)
	}

	d.quad = bind_group_provider.NewBindGroupProvider("fullscreen quad")
	if err := d.gpu.InitMeshBuffers(d.quad, common.SliceToBytes(quadVertices), common.SliceToBytes(quadIndices), len(quadIndices)); err != nil {
		return fmt.Errorf("deferred: fullscreen quad: %w", err)
	}

	d.inputs = bind_group_provider.NewBindGroupProvider("gbuffer inputs")
	if err := d.gpu.InitSampler(d.inputs, gbufferSamplerBinding, gbufferSampler); err != nil {
		return fmt.Errorf("deferred: gbuffer sampler: %w", err)
	}

	w, h := d.gpu.SurfaceSize()
	if err := d.allocateTargets(w, h); err != nil {
		return err
	}
	d.initialized = true
	common.Logger().Info("deferred strategy initialized", "objects", s.Count(), "width", w, "height", h)
	return nil
}

// allocateTargets replaces the G-buffer and rebuilds the shading inputs group around the
// new views. The sampler is kept.
func (d *clusteredDeferred) allocateTargets(width, height int) error {
	d.releaseTargets()

	w, h := uint32(max(width, 1)), uint32(max(height, 1))
	labels := [GBufferTargetCount]string{"gbuffer position", "gbuffer normal", "gbuffer albedo"}
	for i, label := range labels {
		t, err := d.gpu.CreateRenderTarget(label, w, h, GBufferFormat)
		if err != nil {
			return fmt.Errorf("deferred: %s: %w", label, err)
		}
		d.targets = append(d.targets, t)
		d.inputs.ShareTextureView(i, t.View)
	}
	depth, err := d.gpu.CreateRenderTarget("gbuffer depth", w, h, DepthFormat)
	if err != nil {
		return fmt.Errorf("deferred: gbuffer depth: %w", err)
	}
	d.depth = depth

	d.inputs.InvalidateBindGroup()
	if err := d.gpu.InitBindGroup(d.inputs, GBufferInputsLayout(), nil, nil); err != nil {
		return fmt.Errorf("deferred: gbuffer inputs: %w", err)
	}
	d.width, d.height = width, height
	common.Logger().Debug("gbuffer allocated", "width", width, "height", height)
	return nil
}

func (d *clusteredDeferred) releaseTargets() {
	for _, t := range d.targets {
		t.Release()
	}
	d.targets = nil
	d.depth.Release()
	d.depth = nil
}

func (d *clusteredDeferred) Resize(width, height int) error {
	if width <= 0 || height <= 0 || (width == d.width && height == d.height) {
		return nil
	}
	if d.inputs == nil {
		d.width, d.height = width, height
		return nil
	}
	return d.allocateTargets(width, height)
}

func (d *clusteredDeferred) RenderFrame(frame FrameState) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	lighting, err := d.lightingGroup()
	if err != nil {
		return err
	}
	d.writeFrameUniforms()

	if err := d.gpu.BeginRenderPass(renderer.RenderPass{
		Label:  "gbuffer",
		Colors: d.targets,
		Depth:  d.depth,
	}); err != nil {
		return err
	}
	err = d.drawScene(GBufferPipelineKey)
	d.gpu.EndRenderPass()
	if err != nil {
		return err
	}

	if err := d.gpu.BeginRenderPass(renderer.RenderPass{
		Label:      "deferred shading",
		ClearColor: d.clearColor,
	}); err != nil {
		return err
	}
	defer d.gpu.EndRenderPass()
	return d.gpu.DrawCall(DeferredShadingPipelineKey, d.quad, 1, []bind_group_provider.BindGroupProvider{
		d.inputs,
		lighting,
		d.cam.BindGroupProvider(),
	})
}

func (d *clusteredDeferred) Release() {
	d.releaseTargets()
	if d.inputs != nil {
		d.inputs.Release()
		d.inputs = nil
	}
	if d.quad != nil {
		d.quad.Release()
		d.quad = nil
	}
	d.release()
	d.initialized = false
	d.width, d.height = 0, 0
}
