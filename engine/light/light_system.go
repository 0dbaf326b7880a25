package light

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// MoveLightsPipelineKey is the pipeline cache key of the light simulation compute pass.
	MoveLightsPipelineKey = "move_lights"

	// MoveLightsWorkgroupSize is the @workgroup_size of assets/move_lights.wgsl.
	MoveLightsWorkgroupSize = 64

	lightSetBinding   = 0
	simulationBinding = 1
)

// ErrNotInitialized is returned when a System is used before Initialize.
var ErrNotInitialized = errors.New("light system not initialized")

// system is the implementation of the System interface.
type system struct {
	gpu      renderer.Renderer
	set      LightSet
	provider bind_group_provider.BindGroupProvider

	hostMirror bool
	pool       worker.DynamicWorkerPool
}

// System owns the light set storage buffer on the GPU and records the light simulation pass.
// Other passes bind the light set through LightBuffer; only the simulation pass writes it.
type System interface {
	// Initialize registers the move_lights compute pipeline, allocates the light set and
	// simulation uniform buffers and uploads the full light set.
	//
	// Returns:
	//   - error: an error if pipeline registration or buffer creation fails
	Initialize() error

	// LightSet returns the CPU mirror of the light set.
	//
	// Returns:
	//   - LightSet: the light set
	LightSet() LightSet

	// SetLightCount changes the active light count and rewrites the buffer header.
	//
	// Parameters:
	//   - n: the new active count
	//
	// Returns:
	//   - error: ErrLightCountExceedsMax when n exceeds the capacity
	SetLightCount(n int) error

	// Upload rewrites the header and every light record.
	Upload()

	// Dispatch writes the simulation uniforms and records the move_lights pass into the
	// current frame, one invocation per active light. Nothing is recorded for zero lights.
	// With a host mirror the CPU light set is advanced instead and its active records are
	// uploaded, so every later pass reads the positions the host clustered against.
	//
	// Parameters:
	//   - time: elapsed time in seconds
	//
	// Returns:
	//   - error: ErrNotInitialized, or an error from the renderer
	Dispatch(time float32) error

	// SetHostMirror moves the light simulation to the CPU: Dispatch advances the light set
	// on pool and uploads it in place of the move_lights pass. Call it before Initialize
	// to skip registering the compute pipeline.
	//
	// Parameters:
	//   - pool: the worker pool the CPU simulation fans out on, may be nil
	SetHostMirror(pool worker.DynamicWorkerPool)

	// LightBuffer returns the light set storage buffer. The buffer stays owned by the System.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer, or nil before Initialize
	LightBuffer() *wgpu.Buffer

	// Release frees the GPU buffers.
	Release()
}

var _ System = &system{}

// NewSystem creates a light System around an explicit GPU context.
//
// Parameters:
//   - gpu: the renderer creating and recording GPU work
//   - set: the light set to mirror on the GPU
//
// Returns:
//   - System: the light system, not yet initialized
func NewSystem(gpu renderer.Renderer, set LightSet) System {
	return &system{
		gpu: gpu,
		set: set,
	}
}

// SimulationLayout returns the bind group layout of the move_lights pass.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: light set storage at 0, simulation uniforms at 1
func SimulationLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "move lights",
		Entries: []wgpu.BindGroupLayoutEntry{
			bind_group_provider.BufferEntry(lightSetBinding, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeStorage, GPULightSetHeaderSize+GPULightSize),
			bind_group_provider.BufferEntry(simulationBinding, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeUniform, GPUSimulationUniformsSize),
		},
	}
}

// SimulationPipeline returns the move_lights compute pipeline description.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
func SimulationPipeline() pipeline.Pipeline {
	cs := shader.NewShader(MoveLightsPipelineKey, shader.ShaderTypeCompute,
		shader.WithSource(GPULightSource, MoveLightsSource),
		shader.WithEntryPoint("main"),
	)
	return pipeline.NewPipeline(MoveLightsPipelineKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, SimulationLayout()),
	)
}

func (s *system) Initialize() error {
	if !s.hostMirror {
		if err := s.gpu.RegisterPipelines(SimulationPipeline()); err != nil {
			return fmt.Errorf("light system: %w", err)
		}
	}

	s.provider = bind_group_provider.NewBindGroupProvider("light set")
	if err := s.gpu.InitBindGroup(s.provider, SimulationLayout(), nil, map[int]uint64{lightSetBinding: s.set.Size()}); err != nil {
		return fmt.Errorf("light system: %w", err)
	}
	s.Upload()

	common.Logger().Info("light system initialized", "lights", s.set.Count(), "maxLights", s.set.MaxLights())
	return nil
}

func (s *system) LightSet() LightSet {
	return s.set
}

func (s *system) SetLightCount(n int) error {
	if err := s.set.SetLightCount(n); err != nil {
		return err
	}
	if s.provider != nil {
		s.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
			Provider: s.provider,
			Binding:  lightSetBinding,
			Data:     s.set.MarshalHeader(),
		}})
	}
	common.Logger().Debug("light count changed", "lights", n)
	return nil
}

func (s *system) Upload() {
	if s.provider == nil {
		return
	}
	s.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.provider,
		Binding:  lightSetBinding,
		Data:     s.set.Marshal(),
	}})
}

func (s *system) Dispatch(time float32) error {
	if s.provider == nil {
		return ErrNotInitialized
	}

	// One simulation feeds clustering and shading alike.
	if s.hostMirror {
		s.set.Simulate(s.pool, time)
		s.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
			Provider: s.provider,
			Binding:  lightSetBinding,
			Data:     s.set.MarshalActive(),
		}})
		return nil
	}

	b := s.set.Bounds()
	u := GPUSimulationUniforms{
		Time:      time,
		Speed:     s.set.MotionSpeed(),
		BoundsMin: [4]float32{b.Min[0], b.Min[1], b.Min[2], 0},
		BoundsMax: [4]float32{b.Max[0], b.Max[1], b.Max[2], 0},
	}
	s.gpu.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.provider,
		Binding:  simulationBinding,
		Data:     u.Marshal(),
	}})

	groups := common.CeilDiv(uint32(s.set.Count()), MoveLightsWorkgroupSize)
	if groups == 0 {
		return nil
	}
	return s.gpu.DispatchCompute(MoveLightsPipelineKey, []bind_group_provider.BindGroupProvider{s.provider}, [3]uint32{groups, 1, 1})
}

func (s *system) SetHostMirror(pool worker.DynamicWorkerPool) {
	s.hostMirror = true
	s.pool = pool
}

func (s *system) LightBuffer() *wgpu.Buffer {
	if s.provider == nil {
		return nil
	}
	return s.provider.Buffer(lightSetBinding)
}

func (s *system) Release() {
	if s.provider != nil {
		s.provider.Release()
		s.provider = nil
	}
}
