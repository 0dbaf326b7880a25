package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/profiler"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/scene"
	"github.com/Carmen-Shannon/oxy-cluster/engine/strategy"
	"github.com/Carmen-Shannon/oxy-cluster/engine/window"
)

// ErrRenderPanic wraps a panic recovered on the render goroutine.
var ErrRenderPanic = errors.New("render goroutine panicked")

// lightCountStep is how many lights one key press adds or removes.
const lightCountStep = 100

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	resizeChannel   chan [2]int        // latest pending surface size, applied by the render goroutine

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	// mu serializes frame recording against changes made from other goroutines.
	mu          sync.Mutex
	initialized bool
	err         error

	window   window.Window
	gpu      renderer.Renderer
	scene    scene.Scene
	lights   light.System
	clusters cluster.System
	strategy strategy.Strategy

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool // toggled from the window thread

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	frame   uint64
	elapsed float32
}

// Engine drives one clustered-lighting session: per frame it advances the camera and the
// scene, then records light simulation, light clustering and the strategy's passes into a
// single submission. Device or surface loss ends the session and is returned from Run.
type Engine interface {
	// Window returns the window the engine presents into, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the GPU context shared by every system.
	Renderer() renderer.Renderer

	// Scene returns the scene being drawn.
	Scene() scene.Scene

	// Lights returns the light system.
	Lights() light.System

	// Clusters returns the cluster system.
	Clusters() cluster.System

	// Strategy returns the active rendering strategy.
	Strategy() strategy.Strategy

	// Initialize uploads the light set, allocates the cluster buffers and initializes the
	// strategy against the scene. Run calls it when it has not been called yet.
	//
	// Returns:
	//   - error: the first initialization error
	Initialize() error

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetLightCount changes the number of simulated and clustered lights. The lighting bind
	// groups are rebuilt on the next frame.
	//
	// Parameters:
	//   - n: the new light count
	//
	// Returns:
	//   - error: cluster.ErrLightCountExceedsMax when n is above the configured maximum
	SetLightCount(n int) error

	// Resize queues a new surface size. The renderer, camera, cluster buffer and strategy
	// targets are resized at the start of the next frame, before anything is dispatched.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// RenderFrame records and presents one frame.
	//
	// Parameters:
	//   - dt: the time since the previous frame in seconds
	//
	// Returns:
	//   - error: a renderer error, including renderer.ErrDeviceLost and renderer.ErrSurfaceLost
	RenderFrame(dt float32) error

	// Run starts the tick and render loops and blocks until the window closes, Quit is
	// called, or a frame fails.
	//
	// Returns:
	//   - error: the error that ended the session, nil on a normal shutdown
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Release frees the strategy, cluster and light GPU resources.
	Release()
}

// NewEngine creates an Engine around explicitly constructed systems. Nothing is shared
// through package state: every system receives gpu from the caller.
//
// Parameters:
//   - gpu: the renderer every system records into
//   - s: the scene to draw, its camera drives clustering and shading
//   - lights: the light system
//   - clusters: the cluster system built on lights
//   - strat: the rendering strategy built on lights and clusters
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(gpu renderer.Renderer, s scene.Scene, lights light.System, clusters cluster.System, strat strategy.Strategy, options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		resizeChannel:   make(chan [2]int, 1),
		quitChannel:     make(chan struct{}),
		wg:              sync.WaitGroup{},
		gpu:             gpu,
		scene:           s,
		lights:          lights,
		clusters:        clusters,
		strategy:        strat,
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithDetail(e.describe))
	}

	if e.window != nil {
		e.bindWindow()
	}
	return e
}

// bindWindow routes window events to the engine. Callbacks run on the window thread, so
// they only queue work or touch thread-safe state.
func (e *engine) bindWindow() {
	e.window.SetResizeCallback(e.Resize)
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.RequestClose()
		default:
		}
	})
	e.window.SetScrollCallback(func(delta float32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			ctrl.Zoom(delta)
		}
	})
	e.window.SetDragCallback(func(dx, dy float32) {
		ctrl := e.scene.Camera().Controller()
		if ctrl == nil {
			return
		}
		ctrl.SetAzimuth(ctrl.Azimuth() - dx*0.005)
		ctrl.SetElevation(ctrl.Elevation() + dy*0.005)
	})
	e.window.SetKeyDownCallback(e.handleKey)
}

// handleKey maps arrow keys onto the orbit controller and +/- onto the light count.
func (e *engine) handleKey(key window.Key) {
	ctrl := e.scene.Camera().Controller()
	switch key {
	case window.KeyLeft:
		if ctrl != nil {
			ctrl.OrbitLeft()
		}
	case window.KeyRight:
		if ctrl != nil {
			ctrl.OrbitRight()
		}
	case window.KeyUp:
		if ctrl != nil {
			ctrl.OrbitUp()
		}
	case window.KeyDown:
		if ctrl != nil {
			ctrl.OrbitDown()
		}
	case window.KeyEqual, window.KeyKPAdd:
		e.stepLightCount(lightCountStep)
	case window.KeyMinus, window.KeyKPSubtract:
		e.stepLightCount(-lightCountStep)
	case window.KeyP:
		if e.profilingEnabled.Load() {
			e.DisableProfiler()
		} else {
			e.EnableProfiler()
		}
	}
}

func (e *engine) stepLightCount(delta int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.lights.LightSet().Count() + delta
	n = max(0, min(n, e.clusters.Config().MaxLights, e.lights.LightSet().MaxLights()))
	if err := e.clusters.SetLightCount(n); err != nil {
		common.Logger().Warn("light count change rejected", "lights", n, "err", err)
	}
}

// describe is the profiler detail line. It runs on the render goroutine between frames,
// so the light count is read under e.mu like every other access to the light set.
func (e *engine) describe() string {
	e.mu.Lock()
	count := e.lights.LightSet().Count()
	e.mu.Unlock()
	g := e.clusters.Grid()
	return fmt.Sprintf("%s | lights: %d | clusters: %dx%dx%d cap %d",
		e.strategy.Kind(), count, g.TilesX, g.TilesY, g.Slices, e.clusters.Config().Capacity)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.gpu
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Lights() light.System {
	return e.lights
}

func (e *engine) Clusters() cluster.System {
	return e.clusters
}

func (e *engine) Strategy() strategy.Strategy {
	return e.strategy
}

func (e *engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}

	if err := e.lights.Initialize(); err != nil {
		return err
	}
	if err := e.clusters.Initialize(); err != nil {
		return err
	}
	if err := e.strategy.Initialize(e.scene); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

func (e *engine) SetLightCount(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clusters.SetLightCount(n)
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	size := [2]int{width, height}
	// Keep only the latest size.
	select {
	case e.resizeChannel <- size:
	default:
		select {
		case <-e.resizeChannel:
		default:
		}
		e.resizeChannel <- size
	}
}

// applyResize resizes every size-dependent resource to the pending size, if any. Callers
// hold e.mu.
func (e *engine) applyResize() error {
	var size [2]int
	select {
	case size = <-e.resizeChannel:
	default:
		return nil
	}
	w, h := size[0], size[1]

	e.gpu.Resize(w, h)
	e.scene.Camera().SetViewport(w, h)
	if err := e.clusters.Resize(w, h); err != nil {
		return err
	}
	if err := e.strategy.Resize(w, h); err != nil {
		return err
	}
	common.Logger().Debug("surface resized", "width", w, "height", h)
	return nil
}

func (e *engine) RenderFrame(dt float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.applyResize(); err != nil {
		return err
	}

	e.elapsed += dt
	cam := e.scene.Camera()
	cam.Update(dt)
	e.scene.Update(dt)

	if err := e.gpu.BeginFrame(); err != nil {
		return err
	}
	if err := e.lights.Dispatch(e.elapsed); err != nil {
		return err
	}
	if err := e.clusters.Dispatch(cam); err != nil {
		return err
	}
	if err := e.strategy.RenderFrame(strategy.FrameState{Index: e.frame, Time: e.elapsed, Delta: dt}); err != nil {
		return err
	}
	if err := e.gpu.EndFrame(); err != nil {
		return err
	}
	e.gpu.Present()
	e.frame++
	return nil
}

func (e *engine) Run() error {
	if err := e.Initialize(); err != nil {
		return err
	}

	e.running = true
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running = false
	return e.sessionErr()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategy.Release()
	e.clusters.Release()
	e.lights.Release()
	e.initialized = false
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// fail records the first fatal error of the session and stops the loops.
func (e *engine) fail(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.signalQuit()
}

func (e *engine) sessionErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// A failed frame or a recovered panic ends the session with that error.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render goroutine recovered from panic: %v", r)
			e.fail(fmt.Errorf("%w: %v", ErrRenderPanic, r))
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.RenderFrame(dt); err != nil {
				if errors.Is(err, renderer.ErrDeviceLost) || errors.Is(err, renderer.ErrSurfaceLost) {
					log.Printf("render session lost its GPU: %v", err)
				}
				e.fail(err)
				return
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Tick(time.Since(now))
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
