package light

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMotionSpeed is the angular speed of every light's orbit in radians per second.
const DefaultMotionSpeed float32 = 0.6

// simulationChunk is the number of lights one worker task advances.
const simulationChunk = 512

// pcgHash is the PCG output permutation used to derive per-light motion parameters.
// Mirrors pcg_hash in assets/move_lights.wgsl; uint32 arithmetic wraps identically.
func pcgHash(x uint32) uint32 {
	state := x*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// hashUnit maps pcgHash(x) into [0, 1).
func hashUnit(x uint32) float32 {
	return float32(pcgHash(x)) / 4294967296.0
}

// Motion returns the position of light index at time seconds. Each light orbits a base
// point inside bounds on an ellipse a quarter of the bounds extent wide. The base point and
// phase are hashed from the index, so the path is fully deterministic and the result is
// clamped into bounds.
//
// The move_lights compute shader evaluates the same function on the GPU.
//
// Parameters:
//   - index: the light index
//   - time: elapsed time in seconds
//   - speed: the angular speed in radians per second
//   - bounds: the box the light is kept inside
//
// Returns:
//   - mgl32.Vec3: the world-space light position
func Motion(index uint32, time, speed float32, bounds Bounds) mgl32.Vec3 {
	extent := bounds.Extent()
	seed := index * 4
	base := bounds.Min.Add(mgl32.Vec3{
		extent[0] * hashUnit(seed),
		extent[1] * hashUnit(seed+1),
		extent[2] * hashUnit(seed+2),
	})
	phase := hashUnit(seed+3) * 2 * math.Pi
	amp := extent.Mul(0.25)
	a := float64(time*speed + phase)

	offset := mgl32.Vec3{
		float32(math.Cos(a)) * amp[0],
		float32(math.Sin(a*0.7)) * amp[1],
		float32(math.Sin(a)) * amp[2],
	}
	return bounds.Clamp(base.Add(offset))
}

// simulate advances lights[0:count] to time. With a nil pool the lights are updated on the
// calling goroutine, otherwise chunks are fanned out to the pool and joined before return.
func simulate(pool worker.DynamicWorkerPool, lights []Light, time, speed float32, bounds Bounds) {
	if pool == nil || len(lights) <= simulationChunk {
		for i := range lights {
			lights[i].Position = Motion(uint32(i), time, speed, bounds)
		}
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < len(lights); start += simulationChunk {
		end := min(start+simulationChunk, len(lights))
		wg.Add(1)
		s, e := start, end
		pool.SubmitTask(worker.Task{
			ID: s / simulationChunk,
			Do: func() (any, error) {
				defer wg.Done()
				for i := s; i < e; i++ {
					lights[i].Position = Motion(uint32(i), time, speed, bounds)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}
