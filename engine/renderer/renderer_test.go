package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeBackend struct {
	RendererBackend

	computeRegistered int
	renderRegistered  int
	registerErr       error
	dispatched        [][3]uint32
}

func (f *fakeBackend) RegisterComputePipeline(p pipeline.Pipeline) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.computeRegistered++
	return nil
}

func (f *fakeBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.renderRegistered++
	return nil
}

func (f *fakeBackend) DispatchCompute(p pipeline.Pipeline, bindGroups []bind_group_provider.BindGroupProvider, wg [3]uint32) error {
	f.dispatched = append(f.dispatched, wg)
	return nil
}

func TestRegisterPipelinesSkipsDuplicates(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend)

	compute := pipeline.NewPipeline("light_cluster", pipeline.PipelineTypeCompute)
	render := pipeline.NewPipeline("forward_plus", pipeline.PipelineTypeRender)
	if err := r.RegisterPipelines(compute, render); err != nil {
		t.Fatalf("RegisterPipelines() error = %v", err)
	}
	if err := r.RegisterPipelines(compute); err != nil {
		t.Fatalf("RegisterPipelines() second call error = %v", err)
	}

	if backend.computeRegistered != 1 || backend.renderRegistered != 1 {
		t.Fatalf("backend registrations = compute %d render %d, want 1 and 1", backend.computeRegistered, backend.renderRegistered)
	}
	if r.Pipeline("light_cluster") != compute {
		t.Fatal("Pipeline() should return the cached compute pipeline")
	}
}

func TestRegisterPipelinesWrapsBackendError(t *testing.T) {
	sentinel := errors.New("shader compile failed")
	r := newRendererWithBackend(&fakeBackend{registerErr: sentinel})

	err := r.RegisterPipelines(pipeline.NewPipeline("move_lights", pipeline.PipelineTypeCompute))
	if !errors.Is(err, sentinel) {
		t.Fatalf("RegisterPipelines() error = %v, want wrapped sentinel", err)
	}
	if r.Pipeline("move_lights") != nil {
		t.Fatal("failed pipeline must not be cached")
	}
}

func TestDispatchComputeUnknownPipeline(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend)

	err := r.DispatchCompute("missing", nil, [3]uint32{1, 1, 1})
	if !errors.Is(err, ErrPipelineNotFound) {
		t.Fatalf("DispatchCompute() error = %v, want ErrPipelineNotFound", err)
	}
	if len(backend.dispatched) != 0 {
		t.Fatal("backend should not be reached for an unknown pipeline")
	}
}

func TestDispatchComputeForwardsWorkgroups(t *testing.T) {
	backend := &fakeBackend{}
	r := newRendererWithBackend(backend)
	if err := r.RegisterPipelines(pipeline.NewPipeline("light_cluster", pipeline.PipelineTypeCompute)); err != nil {
		t.Fatal(err)
	}

	if err := r.DispatchCompute("light_cluster", nil, [3]uint32{2, 3, 1}); err != nil {
		t.Fatalf("DispatchCompute() error = %v", err)
	}
	if len(backend.dispatched) != 1 || backend.dispatched[0] != [3]uint32{2, 3, 1} {
		t.Fatalf("dispatched = %v, want [[2 3 1]]", backend.dispatched)
	}
}

func TestRenderTargetHelpers(t *testing.T) {
	var nilTarget *RenderTarget
	nilTarget.Release()

	depth := &RenderTarget{Format: wgpu.TextureFormatDepth24Plus}
	if !depth.IsDepth() {
		t.Fatal("depth24plus target should report IsDepth")
	}
	color := &RenderTarget{Format: wgpu.TextureFormatRGBA16Float}
	if color.IsDepth() {
		t.Fatal("rgba16float target should not report IsDepth")
	}
}
