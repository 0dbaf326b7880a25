// Package cluster assigns point lights to screen-space tiles (optionally split into depth
// slices) so the shading passes only evaluate the lights that can reach a pixel.
package cluster

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
)

// Mode selects where the light assignment is computed.
type Mode int

const (
	// ModeGPU runs the light_cluster compute pass, one invocation per cluster.
	ModeGPU Mode = iota

	// ModeHost computes the assignment on the worker pool and uploads it.
	ModeHost
)

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeGPU:
		return "gpu"
	case ModeHost:
		return "host"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const (
	// MaxCapacity bounds the per-cluster light list so a single cluster never exceeds a
	// 16 KiB slot.
	MaxCapacity = 4096

	// MaxDepthSlices bounds the number of logarithmic depth slices.
	MaxDepthSlices = 64
)

var (
	// ErrInvalidTileExtent is returned for a zero tile width or height.
	ErrInvalidTileExtent = errors.New("tile extent must be positive")

	// ErrInvalidCapacity is returned when the per-cluster capacity is outside [1, MaxCapacity].
	ErrInvalidCapacity = errors.New("cluster capacity out of range")

	// ErrLightCountExceedsMax is returned when the active light count exceeds MaxLights.
	// It is the same value as light.ErrLightCountExceedsMax.
	ErrLightCountExceedsMax = light.ErrLightCountExceedsMax

	// ErrInvalidDepthSlices is returned when DepthSlices is outside [1, MaxDepthSlices].
	ErrInvalidDepthSlices = errors.New("depth slices out of range")

	// ErrInvalidMinIntensity is returned for a non-positive influence cutoff.
	ErrInvalidMinIntensity = light.ErrInvalidMinIntensity

	// ErrInvalidViewport is returned for a zero or negative viewport size.
	ErrInvalidViewport = errors.New("viewport size must be positive")
)

// Config holds the clustering parameters fixed at startup.
type Config struct {
	TileWidth    uint32  // tile extent in pixels along x
	TileHeight   uint32  // tile extent in pixels along y
	Capacity     uint32  // light indices stored per cluster, excess lights are dropped
	MaxLights    int     // largest light count the cluster system accepts
	MinIntensity float32 // brightness cutoff behind each light's influence radius
	DepthSlices  uint32  // 1 for screen-space tiles, more for logarithmic depth clusters
	Mode         Mode
}

// DefaultConfig returns 16x16 pixel tiles holding up to 256 lights each, 5000 lights,
// one depth slice and GPU assignment.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		TileWidth:    16,
		TileHeight:   16,
		Capacity:     256,
		MaxLights:    light.DefaultMaxLights,
		MinIntensity: light.DefaultMinIntensity,
		DepthSlices:  1,
		Mode:         ModeGPU,
	}
}

// Validate checks every field and returns the first violation, wrapped around its sentinel.
//
// Returns:
//   - error: nil when the configuration is usable
func (c Config) Validate() error {
	if c.TileWidth == 0 || c.TileHeight == 0 {
		return fmt.Errorf("cluster config: %w: %dx%d", ErrInvalidTileExtent, c.TileWidth, c.TileHeight)
	}
	if c.Capacity == 0 || c.Capacity > MaxCapacity {
		return fmt.Errorf("cluster config: %w: %d", ErrInvalidCapacity, c.Capacity)
	}
	if c.MaxLights <= 0 {
		return fmt.Errorf("cluster config: %w: max lights %d", light.ErrInvalidMaxLights, c.MaxLights)
	}
	if c.MinIntensity <= 0 {
		return fmt.Errorf("cluster config: %w: %g", ErrInvalidMinIntensity, c.MinIntensity)
	}
	if c.DepthSlices == 0 || c.DepthSlices > MaxDepthSlices {
		return fmt.Errorf("cluster config: %w: %d", ErrInvalidDepthSlices, c.DepthSlices)
	}
	if c.Mode != ModeGPU && c.Mode != ModeHost {
		return fmt.Errorf("cluster config: unknown mode %d", int(c.Mode))
	}
	return nil
}

// Stride returns the number of u32 words one cluster occupies in the cluster buffer: the
// stored count followed by Capacity indices.
func (c Config) Stride() uint32 {
	return 1 + c.Capacity
}
