package light

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultLightCount is the number of active lights a new set starts with.
	DefaultLightCount = 500

	// DefaultMaxLights is the capacity of the light set buffer.
	DefaultMaxLights = 5000

	// DefaultIntensity scales every generated light color.
	DefaultIntensity float32 = 0.1

	// DefaultMinIntensity is the brightness cutoff that defines each light's influence radius.
	DefaultMinIntensity float32 = 0.0025
)

var (
	// ErrLightCountExceedsMax is returned when the active light count would exceed the capacity.
	ErrLightCountExceedsMax = errors.New("light count exceeds max lights")

	// ErrInvalidMaxLights is returned when the light set capacity is not positive.
	ErrInvalidMaxLights = errors.New("max lights must be positive")

	// ErrInvalidMinIntensity is returned when the influence cutoff is not positive.
	ErrInvalidMinIntensity = errors.New("min intensity must be positive")
)

// DefaultBounds is the box lights move inside when no bounds are configured. It covers the
// procedural stage floor with some headroom above it.
var DefaultBounds = Bounds{
	Min: mgl32.Vec3{-12, 0.5, -12},
	Max: mgl32.Vec3{12, 6, 12},
}

// lightSet is the implementation of the LightSet interface.
type lightSet struct {
	lights       []Light
	count        int
	maxLights    int
	intensity    float32
	minIntensity float32
	motionSpeed  float32
	bounds       Bounds
	seed         uint64
}

// LightSet is the CPU mirror of the light set storage buffer: a fixed capacity of light
// records and the number of them that are currently active.
//
// Colors and radii are generated for the full capacity at construction so that raising the
// active count only changes the header. LightSet is not safe for concurrent mutation.
type LightSet interface {
	// Count returns the number of active lights.
	//
	// Returns:
	//   - int: the active light count
	Count() int

	// MaxLights returns the capacity of the set.
	//
	// Returns:
	//   - int: the maximum number of lights
	MaxLights() int

	// SetLightCount changes the number of active lights.
	//
	// Parameters:
	//   - n: the new active count
	//
	// Returns:
	//   - error: ErrLightCountExceedsMax when n > MaxLights, or an error for negative n
	SetLightCount(n int) error

	// Lights returns the active light records. The slice aliases the set's storage and is
	// invalidated by the next Simulate.
	//
	// Returns:
	//   - []Light: the first Count records
	Lights() []Light

	// Bounds returns the box lights move inside.
	Bounds() Bounds

	// MotionSpeed returns the orbit angular speed in radians per second.
	MotionSpeed() float32

	// MinIntensity returns the brightness cutoff used to derive influence radii.
	MinIntensity() float32

	// Simulate advances every active light to the given time using the same motion function
	// as the move_lights compute shader.
	//
	// Parameters:
	//   - pool: the worker pool to fan out on, or nil to run on the caller
	//   - time: elapsed time in seconds
	Simulate(pool worker.DynamicWorkerPool, time float32)

	// Marshal serializes the header and every record, active or not.
	//
	// Returns:
	//   - []byte: Size() bytes ready for GPU upload
	Marshal() []byte

	// MarshalActive serializes the header and the active records only.
	//
	// Returns:
	//   - []byte: GPULightSetHeaderSize + Count()*GPULightSize bytes, a prefix of Marshal
	MarshalActive() []byte

	// MarshalHeader serializes only the header holding the active count.
	//
	// Returns:
	//   - []byte: the 16-byte header
	MarshalHeader() []byte

	// Size returns the byte size of the light set buffer.
	//
	// Returns:
	//   - uint64: header size plus MaxLights records
	Size() uint64
}

var _ LightSet = &lightSet{}

// NewLightSet generates a light set. Every record receives a random hue, scaled by the
// configured intensity, and the influence radius implied by that color and the cutoff.
//
// Parameters:
//   - options: the LightSetBuilderOptions to apply
//
// Returns:
//   - LightSet: the generated set
//   - error: a wrapped ErrInvalidMaxLights, ErrInvalidMinIntensity or ErrLightCountExceedsMax
func NewLightSet(options ...LightSetBuilderOption) (LightSet, error) {
	s := &lightSet{
		count:        DefaultLightCount,
		maxLights:    DefaultMaxLights,
		intensity:    DefaultIntensity,
		minIntensity: DefaultMinIntensity,
		motionSpeed:  DefaultMotionSpeed,
		bounds:       DefaultBounds,
		seed:         1,
	}
	for _, option := range options {
		option(s)
	}

	if s.maxLights <= 0 {
		return nil, fmt.Errorf("new light set: %w: %d", ErrInvalidMaxLights, s.maxLights)
	}
	if s.minIntensity <= 0 {
		return nil, fmt.Errorf("new light set: %w: %g", ErrInvalidMinIntensity, s.minIntensity)
	}
	if s.count < 0 || s.count > s.maxLights {
		return nil, fmt.Errorf("new light set: %w: %d > %d", ErrLightCountExceedsMax, s.count, s.maxLights)
	}

	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	s.lights = make([]Light, s.maxLights)
	for i := range s.lights {
		color := HueToRGB(rng.Float32()).Mul(s.intensity)
		s.lights[i] = Light{
			Position: Motion(uint32(i), 0, s.motionSpeed, s.bounds),
			Radius:   InfluenceRadius(color, s.minIntensity),
			Color:    color,
		}
	}
	return s, nil
}

func (s *lightSet) Count() int {
	return s.count
}

func (s *lightSet) MaxLights() int {
	return s.maxLights
}

func (s *lightSet) SetLightCount(n int) error {
	if n < 0 {
		return fmt.Errorf("set light count: negative count %d", n)
	}
	if n > s.maxLights {
		return fmt.Errorf("set light count: %w: %d > %d", ErrLightCountExceedsMax, n, s.maxLights)
	}
	s.count = n
	return nil
}

func (s *lightSet) Lights() []Light {
	return s.lights[:s.count]
}

func (s *lightSet) Bounds() Bounds {
	return s.bounds
}

func (s *lightSet) MotionSpeed() float32 {
	return s.motionSpeed
}

func (s *lightSet) MinIntensity() float32 {
	return s.minIntensity
}

func (s *lightSet) Simulate(pool worker.DynamicWorkerPool, time float32) {
	simulate(pool, s.lights[:s.count], time, s.motionSpeed, s.bounds)
}

func (s *lightSet) Marshal() []byte {
	buf := make([]byte, s.Size())
	copy(buf, s.MarshalHeader())
	off := GPULightSetHeaderSize
	for i := range s.lights {
		g := ToGPULight(s.lights[i])
		g.marshalInto(buf[off : off+GPULightSize])
		off += GPULightSize
	}
	return buf
}

func (s *lightSet) MarshalActive() []byte {
	buf := make([]byte, GPULightSetHeaderSize+s.count*GPULightSize)
	copy(buf, s.MarshalHeader())
	off := GPULightSetHeaderSize
	for i := range s.count {
		g := ToGPULight(s.lights[i])
		g.marshalInto(buf[off : off+GPULightSize])
		off += GPULightSize
	}
	return buf
}

func (s *lightSet) MarshalHeader() []byte {
	h := GPULightSetHeader{Count: uint32(s.count)}
	return h.Marshal()
}

func (s *lightSet) Size() uint64 {
	return uint64(GPULightSetHeaderSize + s.maxLights*GPULightSize)
}
