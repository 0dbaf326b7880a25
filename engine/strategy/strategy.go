// Package strategy records the geometry and shading passes that consume the clustering
// results. Two strategies share one tile mapping and one lighting bind group layout:
// forward+ shades in the geometry pass, clustered deferred writes a G-buffer and shades it
// in a full-screen pass.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cluster/engine/scene"
)

// Kind selects a rendering strategy.
type Kind int

const (
	// KindForwardPlus shades every fragment in the geometry pass with its cluster's lights.
	KindForwardPlus Kind = iota

	// KindClusteredDeferred writes a G-buffer and shades it in a full-screen pass.
	KindClusteredDeferred
)

// String returns the flag spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindForwardPlus:
		return "forward+"
	case KindClusteredDeferred:
		return "deferred"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses a strategy name as accepted on the command line.
//
// Parameters:
//   - s: one of "forward+", "forward", "forward_plus", "deferred", "clustered_deferred"
//
// Returns:
//   - Kind: the parsed kind
//   - error: ErrUnknownKind for any other name
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward+", "forward", "forward_plus", "forwardplus":
		return KindForwardPlus, nil
	case "deferred", "clustered_deferred", "clustereddeferred":
		return KindClusteredDeferred, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var (
	// ErrUnknownKind is returned for a Kind or name that names no strategy.
	ErrUnknownKind = errors.New("unknown render strategy")

	// ErrNotInitialized is returned by RenderFrame before Initialize.
	ErrNotInitialized = errors.New("render strategy not initialized")
)

// FrameState is the per-frame input of RenderFrame.
type FrameState struct {
	// Index counts frames from zero.
	Index uint64

	// Time is the elapsed session time in seconds.
	Time float32

	// Delta is the time since the previous frame in seconds.
	Delta float32
}

// Strategy records the passes that turn the scene and the clustered lights into an image.
// RenderFrame is called between the renderer's BeginFrame and EndFrame, after the light and
// cluster systems have recorded their compute passes for the same frame.
type Strategy interface {
	// Kind reports which strategy this is.
	Kind() Kind

	// Initialize registers the strategy's pipelines and uploads the scene's meshes,
	// materials and object bind groups.
	//
	// Parameters:
	//   - s: the scene to draw
	//
	// Returns:
	//   - error: an error if a pipeline or resource could not be created
	Initialize(s scene.Scene) error

	// Resize reallocates size-dependent resources. Zero sizes and the current size are ignored.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	//
	// Returns:
	//   - error: an error if a render target could not be created
	Resize(width, height int) error

	// RenderFrame records the strategy's passes into the open frame.
	//
	// Parameters:
	//   - frame: the frame's index and timing
	//
	// Returns:
	//   - error: ErrNotInitialized, or an error from the renderer
	RenderFrame(frame FrameState) error

	// Release frees the strategy's own GPU resources. Scene and system resources are not freed.
	Release()
}

// New creates a Strategy of the given kind around the explicit GPU context and systems.
//
// Parameters:
//   - kind: the strategy to create
//   - gpu: the renderer recording the passes
//   - lights: the light system whose buffer is shaded
//   - clusters: the cluster system whose lists are shaded
//   - cam: the camera the scene is drawn from
//   - options: functional options configuring the strategy
//
// Returns:
//   - Strategy: the strategy, not yet initialized
//   - error: ErrUnknownKind
func New(kind Kind, gpu renderer.Renderer, lights light.System, clusters cluster.System, cam camera.Camera, options ...StrategyBuilderOption) (Strategy, error) {
	shared := newFrameResources(gpu, lights, clusters, cam)
	for _, option := range options {
		option(shared)
	}
	switch kind {
	case KindForwardPlus:
		return &forwardPlus{frameResources: shared}, nil
	case KindClusteredDeferred:
		return &clusteredDeferred{frameResources: shared}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}
