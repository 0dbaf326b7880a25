package cluster

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// LightClusterPipelineKey is the pipeline cache key of the clustering compute pass.
	LightClusterPipelineKey = "light_cluster"

	// ClusterWorkgroupSize is the x and y @workgroup_size of assets/cluster.wgsl.
	ClusterWorkgroupSize = 8

	lightSetBinding = 0
	clusterBinding  = 1
	uniformBinding  = 2
)

// ErrNotInitialized is returned when a System is used before Initialize.
var ErrNotInitialized = errors.New("cluster system not initialized")

// system is the implementation of the System interface.
type system struct {
	mu sync.Mutex

	gpu    renderer.Renderer
	lights light.System
	cfg    Config
	grid   Grid

	provider   bind_group_provider.BindGroupProvider
	pool       worker.DynamicWorkerPool
	generation uint64
	last       *Assignment
}

// System owns the cluster buffer and the cluster uniform buffer and records the clustering
// pass every frame. Shading passes bind both buffers by reference and rebuild their bind
// groups only when Generation changes.
type System interface {
	// Initialize registers the light_cluster compute pipeline (GPU mode) and allocates the
	// cluster and uniform buffers for the current grid.
	//
	// Returns:
	//   - error: an error if pipeline registration or buffer creation fails
	Initialize() error

	// Config returns the validated configuration.
	Config() Config

	// Grid returns the current tile grid.
	Grid() Grid

	// Generation increases every time the cluster buffer or the light count changes. Bind
	// groups built against an older generation must be rebuilt.
	//
	// Returns:
	//   - uint64: the current generation
	Generation() uint64

	// Resize recomputes the grid for a new viewport and reallocates the cluster buffer
	// before the next Dispatch. Resizing to the current size is a no-op.
	//
	// Parameters:
	//   - width: the new viewport width in pixels
	//   - height: the new viewport height in pixels
	//
	// Returns:
	//   - error: ErrInvalidViewport, or a buffer creation error
	Resize(width, height int) error

	// SetLightCount changes the number of active lights.
	//
	// Parameters:
	//   - n: the new light count
	//
	// Returns:
	//   - error: ErrLightCountExceedsMax when n exceeds Config().MaxLights or the light set
	SetLightCount(n int) error

	// Dispatch writes the cluster uniforms for cam and fills the cluster buffer: in GPU mode
	// by recording the light_cluster pass, in host mode by running Assign and uploading the
	// result. Zero lights still produce a full pass so every count reads zero.
	//
	// Parameters:
	//   - cam: the camera of the frame
	//
	// Returns:
	//   - error: ErrNotInitialized, or an error from the renderer
	Dispatch(cam Camera) error

	// ClusterBuffer returns the cluster buffer, owned by the System.
	ClusterBuffer() *wgpu.Buffer

	// UniformBuffer returns the cluster uniform buffer, owned by the System.
	UniformBuffer() *wgpu.Buffer

	// ClusterBufferSize returns the byte size of the cluster buffer for the current grid.
	ClusterBufferSize() uint64

	// LastAssignment returns the assignment uploaded by the most recent host-mode Dispatch,
	// or nil in GPU mode.
	LastAssignment() *Assignment

	// Release frees the GPU buffers and stops the worker pool.
	Release()
}

var _ System = &system{}

// NewSystem validates cfg against the light system and the viewport and creates a cluster
// System. Configuration errors are returned here, before anything is dispatched. The light
// set must have been built with cfg.MinIntensity, since its radii derive from that cutoff.
//
// Parameters:
//   - gpu: the renderer creating and recording GPU work
//   - lights: the light system whose buffer is clustered
//   - cfg: the clustering configuration
//   - width: the initial viewport width in pixels
//   - height: the initial viewport height in pixels
//
// Returns:
//   - System: the cluster system, not yet initialized
//   - error: a wrapped configuration sentinel
func NewSystem(gpu renderer.Renderer, lights light.System, cfg Config, width, height int) (System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if n := lights.LightSet().Count(); n > cfg.MaxLights {
		return nil, fmt.Errorf("cluster config: %w: %d > %d", ErrLightCountExceedsMax, n, cfg.MaxLights)
	}
	// Radii are baked into the light set, so both must use one cutoff.
	if cut := lights.LightSet().MinIntensity(); cut != cfg.MinIntensity {
		return nil, fmt.Errorf("cluster config: %w: %g differs from the light set cutoff %g", ErrInvalidMinIntensity, cfg.MinIntensity, cut)
	}
	grid, err := NewGrid(width, height, cfg)
	if err != nil {
		return nil, err
	}

	s := &system{
		gpu:    gpu,
		lights: lights,
		cfg:    cfg,
		grid:   grid,
	}
	if cfg.Mode == ModeHost {
		s.pool = worker.NewDynamicWorkerPool(max(runtime.NumCPU()-1, 1), 256, 1*time.Second)
		lights.SetHostMirror(s.pool)
	}
	return s, nil
}

// ClusterLayout returns the bind group layout of the clustering pass.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: light set at 0, clusters at 1, uniforms at 2
func ClusterLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "light clusters",
		Entries: []wgpu.BindGroupLayoutEntry{
			bind_group_provider.BufferEntry(lightSetBinding, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeReadOnlyStorage, light.GPULightSetHeaderSize+light.GPULightSize),
			bind_group_provider.BufferEntry(clusterBinding, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeStorage, 4),
			bind_group_provider.BufferEntry(uniformBinding, wgpu.ShaderStageCompute, wgpu.BufferBindingTypeUniform, GPUClusterUniformsSize),
		},
	}
}

// ClusterPipeline returns the light_cluster compute pipeline description. The shader is the
// light record, the shared tile mapping and the clustering kernel, in that order.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
func ClusterPipeline() pipeline.Pipeline {
	cs := shader.NewShader(LightClusterPipelineKey, shader.ShaderTypeCompute,
		shader.WithSource(light.GPULightSource, TileMappingSource, ClusterSource),
		shader.WithEntryPoint("main"),
	)
	return pipeline.NewPipeline(LightClusterPipelineKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithBindGroupLayout(0, ClusterLayout()),
	)
}

func (s *system) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Mode == ModeGPU {
		if err := s.gpu.RegisterPipelines(ClusterPipeline()); err != nil {
			return fmt.Errorf("cluster system: %w", err)
		}
	}

	s.provider = bind_group_provider.NewBindGroupProvider("light clusters",
		bind_group_provider.WithSharedBuffer(lightSetBinding, s.lights.LightBuffer()),
	)
	if err := s.allocate(); err != nil {
		return err
	}

	common.Logger().Info("cluster system initialized",
		"mode", s.cfg.Mode.String(),
		"tilesX", s.grid.TilesX,
		"tilesY", s.grid.TilesY,
		"slices", s.grid.Slices,
		"capacity", s.cfg.Capacity,
	)
	return nil
}

// allocate (re)creates the cluster buffer for the current grid and rebuilds the pass bind
// group. Callers hold s.mu.
func (s *system) allocate() error {
	size := s.clusterBufferSize()
	if err := s.gpu.InitBindGroup(s.provider, ClusterLayout(), nil, map[int]uint64{clusterBinding: size}); err != nil {
		return fmt.Errorf("cluster system: allocate %d byte cluster buffer: %w", size, err)
	}
	s.generation++
	common.Logger().Debug("cluster buffer allocated", "bytes", size, "clusters", s.grid.ClusterCount(), "generation", s.generation)
	return nil
}

func (s *system) clusterBufferSize() uint64 {
	return uint64(s.grid.ClusterCount()) * uint64(s.cfg.Stride()) * 4
}

func (s *system) Config() Config {
	return s.cfg
}

func (s *system) Grid() Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

func (s *system) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *system) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := NewGrid(width, height, s.cfg)
	if err != nil {
		return err
	}
	if grid == s.grid {
		return nil
	}
	s.grid = grid
	if s.provider == nil {
		return nil
	}

	s.provider.ReleaseBuffer(clusterBinding)
	s.provider.InvalidateBindGroup()
	return s.allocate()
}

func (s *system) SetLightCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.cfg.MaxLights {
		return fmt.Errorf("set light count: %w: %d > %d", ErrLightCountExceedsMax, n, s.cfg.MaxLights)
	}
	if err := s.lights.SetLightCount(n); err != nil {
		return err
	}
	s.generation++
	return nil
}

func (s *system) Dispatch(cam Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider == nil {
		return ErrNotInitialized
	}

	u := NewGPUClusterUniforms(s.grid, s.cfg.Capacity, cam.View(), cam.Projection(), cam.Near(), cam.Far())
	writes := []bind_group_provider.BufferWrite{{
		Provider: s.provider,
		Binding:  uniformBinding,
		Data:     u.Marshal(),
	}}

	if s.cfg.Mode == ModeHost {
		s.last = Assign(s.pool, s.grid, cam, s.lights.LightSet().Lights(), s.cfg.Capacity)
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: s.provider,
			Binding:  clusterBinding,
			Data:     s.last.Marshal(),
		})
		s.gpu.WriteBuffers(writes)
		return nil
	}

	s.gpu.WriteBuffers(writes)
	groups := [3]uint32{
		common.CeilDiv(s.grid.TilesX, ClusterWorkgroupSize),
		common.CeilDiv(s.grid.TilesY, ClusterWorkgroupSize),
		s.grid.Slices,
	}
	return s.gpu.DispatchCompute(LightClusterPipelineKey, []bind_group_provider.BindGroupProvider{s.provider}, groups)
}

func (s *system) ClusterBuffer() *wgpu.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil {
		return nil
	}
	return s.provider.Buffer(clusterBinding)
}

func (s *system) UniformBuffer() *wgpu.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil {
		return nil
	}
	return s.provider.Buffer(uniformBinding)
}

func (s *system) ClusterBufferSize() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clusterBufferSize()
}

func (s *system) LastAssignment() *Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *system) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider != nil {
		s.provider.Release()
		s.provider = nil
	}
	if s.pool != nil {
		s.pool.Stop()
		s.pool = nil
	}
}
