package light

// LightSetBuilderOption is a function that configures a LightSet during construction.
type LightSetBuilderOption func(*lightSet)

// WithMaxLights sets the capacity of the light set buffer.
//
// Parameters:
//   - n: the maximum number of lights
//
// Returns:
//   - LightSetBuilderOption: a function that applies the capacity option
func WithMaxLights(n int) LightSetBuilderOption {
	return func(s *lightSet) {
		s.maxLights = n
	}
}

// WithLightCount sets the initial number of active lights.
//
// Parameters:
//   - n: the active light count, must not exceed the capacity
//
// Returns:
//   - LightSetBuilderOption: a function that applies the count option
func WithLightCount(n int) LightSetBuilderOption {
	return func(s *lightSet) {
		s.count = n
	}
}

// WithIntensity sets the scale applied to every generated light color.
//
// Parameters:
//   - intensity: the color scale
//
// Returns:
//   - LightSetBuilderOption: a function that applies the intensity option
func WithIntensity(intensity float32) LightSetBuilderOption {
	return func(s *lightSet) {
		s.intensity = intensity
	}
}

// WithMinIntensity sets the brightness cutoff that defines each light's influence radius.
// Lower values give larger radii and longer tile lists.
//
// Parameters:
//   - cutoff: the minimum intensity, must be > 0
//
// Returns:
//   - LightSetBuilderOption: a function that applies the cutoff option
func WithMinIntensity(cutoff float32) LightSetBuilderOption {
	return func(s *lightSet) {
		s.minIntensity = cutoff
	}
}

// WithBounds sets the box lights move inside.
//
// Parameters:
//   - bounds: the world-space box
//
// Returns:
//   - LightSetBuilderOption: a function that applies the bounds option
func WithBounds(bounds Bounds) LightSetBuilderOption {
	return func(s *lightSet) {
		s.bounds = bounds
	}
}

// WithSeed sets the seed of the color generator so sets are reproducible.
//
// Parameters:
//   - seed: the random seed
//
// Returns:
//   - LightSetBuilderOption: a function that applies the seed option
func WithSeed(seed uint64) LightSetBuilderOption {
	return func(s *lightSet) {
		s.seed = seed
	}
}

// WithMotionSpeed sets the orbit angular speed in radians per second.
//
// Parameters:
//   - speed: the angular speed
//
// Returns:
//   - LightSetBuilderOption: a function that applies the speed option
func WithMotionSpeed(speed float32) LightSetBuilderOption {
	return func(s *lightSet) {
		s.motionSpeed = speed
	}
}
