package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/profiler"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-cluster/engine/scene"
	"github.com/Carmen-Shannon/oxy-cluster/engine/strategy"
	"github.com/Carmen-Shannon/oxy-cluster/engine/window"
)

func newTestEngine(t *testing.T, kind strategy.Kind) (*engine, *renderertest.Fake) {
	t.Helper()
	const w, h = 320, 240
	gpu := renderertest.NewFake(w, h)
	cam := camera.NewCamera(
		camera.WithViewport(w, h),
		camera.WithController(camera.NewOrbitController()),
	)
	s, err := scene.NewStage(cam, scene.WithPillarGrid(2, 4))
	if err != nil {
		t.Fatal(err)
	}

	cfg := cluster.DefaultConfig()
	set, err := light.NewLightSet(light.WithMaxLights(cfg.MaxLights), light.WithLightCount(200))
	if err != nil {
		t.Fatal(err)
	}
	lights := light.NewSystem(gpu, set)
	clusters, err := cluster.NewSystem(gpu, lights, cfg, w, h)
	if err != nil {
		t.Fatal(err)
	}
	strat, err := strategy.New(kind, gpu, lights, clusters, cam)
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(gpu, s, lights, clusters, strat).(*engine)
	t.Cleanup(e.Release)
	return e, gpu
}

func TestRenderFrameOrder(t *testing.T) {
	e, gpu := newTestEngine(t, strategy.KindForwardPlus)
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	for range 2 {
		if err := e.RenderFrame(1.0 / 60); err != nil {
			t.Fatalf("RenderFrame() error = %v", err)
		}
	}

	if gpu.Frames != 2 || gpu.Presented != 2 {
		t.Fatalf("frames %d presented %d, want 2 and 2", gpu.Frames, gpu.Presented)
	}
	want := []string{light.MoveLightsPipelineKey, cluster.LightClusterPipelineKey, light.MoveLightsPipelineKey, cluster.LightClusterPipelineKey}
	if len(gpu.Dispatches) != len(want) {
		t.Fatalf("dispatches = %d, want %d", len(gpu.Dispatches), len(want))
	}
	for i, d := range gpu.Dispatches {
		if d.PipelineKey != want[i] {
			t.Fatalf("dispatch %d = %s, want %s", i, d.PipelineKey, want[i])
		}
	}
	if len(gpu.Draws) == 0 {
		t.Fatal("no geometry drawn")
	}
}

func TestResizeAppliedBeforeDispatch(t *testing.T) {
	e, gpu := newTestEngine(t, strategy.KindClusteredDeferred)
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	targets := len(gpu.Targets)

	e.Resize(0, 100)
	e.Resize(800, 600)
	e.Resize(640, 360)
	if e.clusters.Grid().Width != 320 {
		t.Fatal("Resize must not touch the grid outside a frame")
	}

	if err := e.RenderFrame(1.0 / 60); err != nil {
		t.Fatal(err)
	}

	if gpu.Width != 640 || gpu.Height != 360 {
		t.Fatalf("surface = %dx%d, want 640x360", gpu.Width, gpu.Height)
	}
	if w, h := e.scene.Camera().Viewport(); w != 640 || h != 360 {
		t.Fatalf("camera viewport = %dx%d", w, h)
	}
	g := e.clusters.Grid()
	if g.TilesX != 40 || g.TilesY != 23 {
		t.Fatalf("grid = %dx%d, want 40x23", g.TilesX, g.TilesY)
	}
	last := gpu.Dispatches[len(gpu.Dispatches)-1]
	if last.PipelineKey != cluster.LightClusterPipelineKey || last.WorkGroupCount != [3]uint32{5, 3, 1} {
		t.Fatalf("cluster dispatch = %+v, want [5 3 1]", last)
	}
	if len(gpu.Targets) != targets+strategy.GBufferTargetCount+1 {
		t.Fatalf("gbuffer not reallocated: %d targets", len(gpu.Targets))
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	e, gpu := newTestEngine(t, strategy.KindForwardPlus)
	frames := 0
	e.SetRenderCallback(func(float32) {
		frames++
		if frames == 3 {
			e.Quit()
		}
	})

	if err := e.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gpu.Frames != 3 || gpu.Presented != 3 {
		t.Fatalf("frames %d presented %d, want 3", gpu.Frames, gpu.Presented)
	}
}

func TestRunSurfacesDeviceLoss(t *testing.T) {
	for _, lost := range []error{renderer.ErrDeviceLost, renderer.ErrSurfaceLost} {
		e, gpu := newTestEngine(t, strategy.KindForwardPlus)
		gpu.EndFrameErr = lost

		err := e.Run()
		if !errors.Is(err, lost) {
			t.Fatalf("Run() error = %v, want %v", err, lost)
		}
		if gpu.Frames != 1 || gpu.Presented != 0 {
			t.Fatalf("frames %d presented %d after %v, want 1 and 0", gpu.Frames, gpu.Presented, lost)
		}
	}
}

func TestRunRecoversRenderPanic(t *testing.T) {
	e, _ := newTestEngine(t, strategy.KindForwardPlus)
	e.SetRenderCallback(func(float32) {
		panic("boom")
	})
	if err := e.Run(); !errors.Is(err, ErrRenderPanic) {
		t.Fatalf("Run() error = %v, want ErrRenderPanic", err)
	}
}

func TestSetLightCount(t *testing.T) {
	e, _ := newTestEngine(t, strategy.KindForwardPlus)
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	gen := e.clusters.Generation()

	if err := e.SetLightCount(10); err != nil {
		t.Fatal(err)
	}
	if e.lights.LightSet().Count() != 10 || e.clusters.Generation() == gen {
		t.Fatal("SetLightCount should change the light set and bump the cluster generation")
	}
	if err := e.SetLightCount(e.clusters.Config().MaxLights + 1); !errors.Is(err, cluster.ErrLightCountExceedsMax) {
		t.Fatalf("SetLightCount(max+1) error = %v", err)
	}
}

func TestHandleKey(t *testing.T) {
	e, _ := newTestEngine(t, strategy.KindForwardPlus)
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}

	e.handleKey(window.KeyEqual)
	if n := e.lights.LightSet().Count(); n != 300 {
		t.Fatalf("count after + = %d, want 300", n)
	}
	e.handleKey(window.KeyMinus)
	e.handleKey(window.KeyMinus)
	e.handleKey(window.KeyMinus)
	if n := e.lights.LightSet().Count(); n != 0 {
		t.Fatalf("count after three - = %d, want 0", n)
	}

	ctrl := e.scene.Camera().Controller()
	az := ctrl.Azimuth()
	e.handleKey(window.KeyLeft)
	if ctrl.Azimuth() == az {
		t.Fatal("left arrow should orbit the camera")
	}

	e.handleKey(window.KeyP)
	if !e.profilingEnabled.Load() {
		t.Fatal("P should toggle the profiler on")
	}
}

func TestProfilerDetailWhileLightCountChanges(t *testing.T) {
	e, _ := newTestEngine(t, strategy.KindForwardPlus)
	e.profiler = profiler.NewProfiler(
		profiler.WithInterval(time.Nanosecond),
		profiler.WithQuiet(true),
		profiler.WithDetail(e.describe),
	)
	e.EnableProfiler()

	frames := 0
	e.SetRenderCallback(func(float32) {
		frames++
		if frames == 20 {
			e.Quit()
		}
	})

	// Key presses arrive on the window thread while the render goroutine reports.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		keys := []window.Key{window.KeyEqual, window.KeyMinus, window.KeyP, window.KeyP}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
				e.handleKey(keys[i%len(keys)])
			}
		}
	}()

	err := e.Run()
	close(done)
	wg.Wait()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := fmt.Sprintf("lights: %d |", e.lights.LightSet().Count())
	if got := e.describe(); !strings.Contains(got, want) || !strings.HasPrefix(got, strategy.KindForwardPlus.String()) {
		t.Fatalf("describe() = %q, want it to contain %q", got, want)
	}
}
