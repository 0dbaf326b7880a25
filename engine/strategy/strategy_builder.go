package strategy

import "github.com/cogentcore/webgpu/wgpu"

// StrategyBuilderOption is a functional option applied to a strategy during construction via New.
type StrategyBuilderOption func(*frameResources)

// WithClearColor sets the color of pixels no geometry covers.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - StrategyBuilderOption: a function that applies the clear color to a strategy
func WithClearColor(color wgpu.Color) StrategyBuilderOption {
	return func(r *frameResources) {
		r.clearColor = color
	}
}
