package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// orbitController is the implementation of CameraController.
// Orbit methods modify spherical coordinates and recompute position.
type orbitController struct {
	mu *sync.Mutex

	// Camera position (computed from target + spherical coords)
	position mgl32.Vec3
	target   mgl32.Vec3

	// Spherical coordinates (offset from target)
	radius    float32
	azimuth   float32 // Horizontal angle around Y axis
	elevation float32 // Vertical angle from horizontal plane

	// Orbit constraints
	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
	autoRotate float32
}

// Compile-time interface compliance check
var _ CameraController = &orbitController{}

// NewOrbitController creates a new orbit controller with defaults sized for the
// procedural stage: 18 units out, 25 degrees up, turning slowly.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &orbitController{
		mu:     &sync.Mutex{},
		target: mgl32.Vec3{0, 1, 0},

		radius:    18.0,
		azimuth:   0.0,
		elevation: mgl32.DegToRad(25),

		minRadius:    1.0,
		maxRadius:    200.0,
		minElevation: 0.05,
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed: 0.03,
		zoomSpeed:  1.0,
		autoRotate: 0.15,
	}

	for _, option := range options {
		option(cc)
	}

	cc.clamp()
	cc.updatePosition()
	return cc
}

// clamp keeps radius and elevation inside their bounds. Caller must hold the mutex.
func (cc *orbitController) clamp() {
	cc.radius = mgl32.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = mgl32.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
}

// updatePosition recomputes the camera position from spherical coordinates.
// Must be called whenever radius, azimuth, elevation, or target changes.
// Caller must hold the mutex.
func (cc *orbitController) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position = cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

func (cc *orbitController) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *orbitController) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *orbitController) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *orbitController) Advance(dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.autoRotate == 0 || dt <= 0 {
		return
	}
	cc.azimuth = float32(math.Mod(float64(cc.azimuth+cc.autoRotate*dt), 2*math.Pi))
	cc.updatePosition()
}

func (cc *orbitController) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius -= delta * cc.zoomSpeed
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) OrbitLeft() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth -= cc.orbitSpeed
	cc.updatePosition()
}

func (cc *orbitController) OrbitRight() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += cc.orbitSpeed
	cc.updatePosition()
}

func (cc *orbitController) OrbitUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation += cc.orbitSpeed
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) OrbitDown() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation -= cc.orbitSpeed
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *orbitController) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = radius
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *orbitController) SetAzimuth(azimuth float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth = azimuth
	cc.updatePosition()
}

func (cc *orbitController) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *orbitController) SetElevation(elevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = elevation
	cc.clamp()
	cc.updatePosition()
}

func (cc *orbitController) AutoRotate() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.autoRotate
}
