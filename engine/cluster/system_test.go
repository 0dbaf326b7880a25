package cluster

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/shader"
)

func newClusterTest(t *testing.T, cfg Config, lightCount, w, h int) (*renderertest.Fake, light.System, System) {
	t.Helper()
	set, err := light.NewLightSet(light.WithMaxLights(cfg.MaxLights), light.WithLightCount(lightCount))
	if err != nil {
		t.Fatal(err)
	}
	gpu := renderertest.NewFake(w, h)
	lights := light.NewSystem(gpu, set)
	if err := lights.Initialize(); err != nil {
		t.Fatal(err)
	}
	sys, err := NewSystem(gpu, lights, cfg, w, h)
	if err != nil {
		t.Fatalf("NewSystem() error = %v", err)
	}
	t.Cleanup(sys.Release)
	if err := sys.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := gpu.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	return gpu, lights, sys
}

// clusterProvider returns the provider the cluster system initialized its bind group on.
func clusterProvider(t *testing.T, gpu *renderertest.Fake) renderertest.BindGroupInit {
	t.Helper()
	for i := len(gpu.BindGroupInits) - 1; i >= 0; i-- {
		if gpu.BindGroupInits[i].Descriptor.Label == ClusterLayout().Label {
			return gpu.BindGroupInits[i]
		}
	}
	t.Fatal("cluster bind group never initialized")
	return renderertest.BindGroupInit{}
}

func TestNewSystemRejectsBadConfig(t *testing.T) {
	set, _ := light.NewLightSet(light.WithMaxLights(100), light.WithLightCount(100))
	gpu := renderertest.NewFake(64, 64)
	lights := light.NewSystem(gpu, set)

	cfg := DefaultConfig()
	cfg.TileWidth = 0
	if _, err := NewSystem(gpu, lights, cfg, 64, 64); !errors.Is(err, ErrInvalidTileExtent) {
		t.Fatalf("zero tile error = %v", err)
	}

	cfg = DefaultConfig()
	cfg.MaxLights = 50
	if _, err := NewSystem(gpu, lights, cfg, 64, 64); !errors.Is(err, ErrLightCountExceedsMax) {
		t.Fatalf("light count over MaxLights error = %v", err)
	}

	if _, err := NewSystem(gpu, lights, DefaultConfig(), 0, 64); !errors.Is(err, ErrInvalidViewport) {
		t.Fatalf("zero width error = %v", err)
	}

	cfg = DefaultConfig()
	cfg.MaxLights = 100
	cfg.MinIntensity = 0.5
	if _, err := NewSystem(gpu, lights, cfg, 64, 64); !errors.Is(err, ErrInvalidMinIntensity) {
		t.Fatalf("cutoff mismatch error = %v, want ErrInvalidMinIntensity", err)
	}

	matched, _ := light.NewLightSet(light.WithMaxLights(100), light.WithLightCount(10), light.WithMinIntensity(0.5))
	if _, err := NewSystem(gpu, light.NewSystem(gpu, matched), cfg, 64, 64); err != nil {
		t.Fatalf("matching cutoff error = %v", err)
	}
}

func TestSystemAllocatesClusterBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 500
	gpu, _, sys := newClusterTest(t, cfg, 100, 1280, 720)

	init := clusterProvider(t, gpu)
	want := uint64(80*45) * uint64(1+cfg.Capacity) * 4
	if init.Sizes[clusterBinding] != want || sys.ClusterBufferSize() != want {
		t.Fatalf("cluster buffer size = %d (reported %d), want %d", init.Sizes[clusterBinding], sys.ClusterBufferSize(), want)
	}
	if sys.Generation() != 1 {
		t.Fatalf("Generation() = %d after Initialize, want 1", sys.Generation())
	}
}

func TestSystemResizeReallocatesBeforeDispatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 500
	gpu, _, sys := newClusterTest(t, cfg, 50, 256, 256)
	gen := sys.Generation()

	if err := sys.Resize(256, 256); err != nil {
		t.Fatal(err)
	}
	if sys.Generation() != gen || len(gpu.BindGroupInits) != 2 {
		t.Fatal("resizing to the same size must not reallocate")
	}

	if err := sys.Resize(1000, 500); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if sys.Generation() != gen+1 {
		t.Fatalf("Generation() = %d, want %d", sys.Generation(), gen+1)
	}
	init := clusterProvider(t, gpu)
	if got, want := init.Sizes[clusterBinding], uint64(63*32)*uint64(cfg.Stride())*4; got != want {
		t.Fatalf("reallocated size = %d, want %d", got, want)
	}
	if g := sys.Grid(); g.TilesX != 63 || g.TilesY != 32 {
		t.Fatalf("grid = %dx%d, want 63x32", g.TilesX, g.TilesY)
	}

	if err := sys.Dispatch(originCamera(2)); err != nil {
		t.Fatal(err)
	}
	last := gpu.Dispatches[len(gpu.Dispatches)-1]
	if last.WorkGroupCount != [3]uint32{8, 4, 1} {
		t.Fatalf("workgroups after resize = %v, want [8 4 1]", last.WorkGroupCount)
	}
}

func TestSystemResizeRejectsEmptyViewport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 10
	_, _, sys := newClusterTest(t, cfg, 1, 64, 64)
	if err := sys.Resize(64, 0); !errors.Is(err, ErrInvalidViewport) {
		t.Fatalf("Resize(64, 0) error = %v, want ErrInvalidViewport", err)
	}
	if g := sys.Grid(); g.Width != 64 || g.Height != 64 {
		t.Fatal("a rejected resize must keep the previous grid")
	}
}

func TestSystemDispatchWithZeroLights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 10
	gpu, _, sys := newClusterTest(t, cfg, 0, 100, 100)

	if err := sys.Dispatch(originCamera(1)); err != nil {
		t.Fatal(err)
	}
	if len(gpu.Dispatches) != 1 || gpu.Dispatches[0].PipelineKey != LightClusterPipelineKey {
		t.Fatalf("dispatches = %+v, want one light_cluster pass", gpu.Dispatches)
	}
	if gpu.Dispatches[0].WorkGroupCount != [3]uint32{1, 1, 1} {
		t.Fatalf("workgroups = %v, want [1 1 1]", gpu.Dispatches[0].WorkGroupCount)
	}
}

func TestSystemDispatchWritesUniforms(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 10
	cfg.DepthSlices = 4
	gpu, _, sys := newClusterTest(t, cfg, 3, 256, 256)

	if err := sys.Dispatch(originCamera(1)); err != nil {
		t.Fatal(err)
	}
	writes := gpu.WritesTo(clusterProvider(t, gpu).Provider, uniformBinding)
	if len(writes) != 1 || len(writes[0].Data) != GPUClusterUniformsSize {
		t.Fatalf("uniform writes = %d, want one %d byte write", len(writes), GPUClusterUniformsSize)
	}
	data := writes[0].Data
	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(data[off:])) }
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }

	if f32(64+8) != 0.1 || f32(64+12) != 100 {
		t.Fatalf("near/far = %v/%v, want 0.1/100", f32(72), f32(76))
	}
	if f32(80) != 256 || f32(84) != 256 {
		t.Fatalf("viewport = %vx%v, want 256x256", f32(80), f32(84))
	}
	if u32(96) != 16 || u32(100) != 16 || u32(104) != 4 || u32(108) != cfg.Capacity {
		t.Fatalf("grid words = %d %d %d %d", u32(96), u32(100), u32(104), u32(108))
	}
	if gpu.Dispatches[0].WorkGroupCount != [3]uint32{2, 2, 4} {
		t.Fatalf("workgroups = %v, want [2 2 4]", gpu.Dispatches[0].WorkGroupCount)
	}
}

func TestSystemHostModeUploadsAssignment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 200
	cfg.Mode = ModeHost
	gpu, lights, sys := newClusterTest(t, cfg, 200, 320, 240)

	if gpu.Pipeline(LightClusterPipelineKey) != nil {
		t.Fatal("host mode must not register the clustering pipeline")
	}
	if err := lights.Dispatch(1); err != nil {
		t.Fatal(err)
	}
	if err := sys.Dispatch(originCamera(320.0 / 240.0)); err != nil {
		t.Fatal(err)
	}
	if len(gpu.Dispatches) != 0 {
		t.Fatalf("host mode recorded %+v, want no compute passes", gpu.Dispatches)
	}

	a := sys.LastAssignment()
	if a == nil {
		t.Fatal("LastAssignment() = nil in host mode")
	}
	writes := gpu.WritesTo(clusterProvider(t, gpu).Provider, clusterBinding)
	if len(writes) != 1 || uint64(len(writes[0].Data)) != sys.ClusterBufferSize() {
		t.Fatalf("cluster writes = %d, want one full buffer upload", len(writes))
	}
	if string(writes[0].Data) != string(a.Marshal()) {
		t.Fatal("uploaded cluster buffer differs from the assignment")
	}
}

func TestSystemSetLightCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLights = 100
	_, lights, sys := newClusterTest(t, cfg, 10, 64, 64)
	gen := sys.Generation()

	if err := sys.SetLightCount(100); err != nil {
		t.Fatalf("SetLightCount(100) error = %v", err)
	}
	if lights.LightSet().Count() != 100 || sys.Generation() != gen+1 {
		t.Fatal("SetLightCount should update the light set and bump the generation")
	}
	if err := sys.SetLightCount(101); !errors.Is(err, ErrLightCountExceedsMax) {
		t.Fatalf("SetLightCount(101) error = %v, want ErrLightCountExceedsMax", err)
	}
	if lights.LightSet().Count() != 100 {
		t.Fatal("a rejected count must leave the set unchanged")
	}
}

func TestSystemDispatchBeforeInitialize(t *testing.T) {
	set, _ := light.NewLightSet(light.WithMaxLights(10), light.WithLightCount(1))
	gpu := renderertest.NewFake(64, 64)
	sys, err := NewSystem(gpu, light.NewSystem(gpu, set), DefaultConfig(), 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.Dispatch(originCamera(1)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Dispatch() error = %v, want ErrNotInitialized", err)
	}
}

func TestClusterPipelineMatchesShader(t *testing.T) {
	p := ClusterPipeline()
	if err := pipeline.CheckLayouts(p); err != nil {
		t.Fatalf("CheckLayouts() error = %v", err)
	}

	cs := p.Shader(shader.ShaderTypeCompute)
	if got := cs.WorkgroupSize(); got != [3]uint32{ClusterWorkgroupSize, ClusterWorkgroupSize, 1} {
		t.Fatalf("workgroup size = %v, want [%d %d 1]", got, ClusterWorkgroupSize, ClusterWorkgroupSize)
	}

	reflected := cs.BindGroupLayoutDescriptors()
	if len(reflected) != 1 {
		t.Fatalf("shader declares %d groups, want 1", len(reflected))
	}
	want := ClusterLayout().Entries
	got := reflected[0].Entries
	if len(got) != len(want) {
		t.Fatalf("group 0 has %d bindings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Binding != want[i].Binding || got[i].Buffer.Type != want[i].Buffer.Type {
			t.Fatalf("binding %d = %v, want %v", want[i].Binding, got[i].Buffer.Type, want[i].Buffer.Type)
		}
	}
}
