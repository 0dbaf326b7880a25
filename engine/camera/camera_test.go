package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraDefaultsWithoutController(t *testing.T) {
	c := NewCamera()
	if w, h := c.Viewport(); w != 1280 || h != 720 {
		t.Fatalf("Viewport() = %dx%d, want 1280x720", w, h)
	}
	if !c.View().ApproxEqual(mgl32.Ident4()) {
		t.Fatal("view should stay identity without a controller")
	}
	c.Update(1)
	if !c.View().ApproxEqual(mgl32.Ident4()) {
		t.Fatal("Update without a controller must not move the view")
	}
}

func TestCameraSetViewportUpdatesProjection(t *testing.T) {
	c := NewCamera(WithFov(math.Pi/2), WithViewport(400, 200))
	p := c.Projection()
	if !mgl32.FloatEqualThreshold(p[5], 1, 1e-6) || !mgl32.FloatEqualThreshold(p[0], 0.5, 1e-6) {
		t.Fatalf("P00/P11 = %v/%v, want 0.5/1", p[0], p[5])
	}

	c.SetViewport(300, 300)
	if !mgl32.FloatEqualThreshold(c.Projection()[0], 1, 1e-6) || c.Aspect() != 1 {
		t.Fatalf("aspect after resize = %v", c.Aspect())
	}

	c.SetViewport(0, 300)
	if w, h := c.Viewport(); w != 300 || h != 300 {
		t.Fatal("a zero viewport must be ignored")
	}
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewOrbitController(
		WithTarget(mgl32.Vec3{0, 0, 0}),
		WithRadius(10),
		WithElevation(0.1),
		WithElevationBounds(0, 1),
		WithAutoRotate(0),
	)
	ctrl.SetElevation(0)
	c := NewCamera(WithController(ctrl), WithNear(0.5), WithFar(50))

	if !c.Position().ApproxEqualThreshold(mgl32.Vec3{0, 0, 10}, 1e-5) {
		t.Fatalf("Position() = %v, want (0, 0, 10)", c.Position())
	}
	// The target sits straight ahead, so it maps to view-space depth 10.
	p := common.TransformPoint(c.View(), mgl32.Vec3{0, 0, 0})
	if !p.ApproxEqualThreshold(mgl32.Vec3{0, 0, -10}, 1e-5) {
		t.Fatalf("target in view space = %v, want (0, 0, -10)", p)
	}
	if !c.ViewProjection().ApproxEqual(c.Projection().Mul4(c.View())) {
		t.Fatal("ViewProjection should equal Projection * View")
	}
}

func TestOrbitControllerAdvance(t *testing.T) {
	ctrl := NewOrbitController(WithAutoRotate(0.5), WithAzimuth(0))
	start := ctrl.Position()
	radius := start.Sub(ctrl.Target()).Len()

	ctrl.Advance(2)
	if !mgl32.FloatEqualThreshold(ctrl.Azimuth(), 1, 1e-6) {
		t.Fatalf("Azimuth() = %v, want 1", ctrl.Azimuth())
	}
	if got := ctrl.Position().Sub(ctrl.Target()).Len(); !mgl32.FloatEqualThreshold(got, radius, 1e-4) {
		t.Fatalf("orbit radius drifted from %v to %v", radius, got)
	}

	ctrl.Advance(-1)
	if !mgl32.FloatEqualThreshold(ctrl.Azimuth(), 1, 1e-6) {
		t.Fatal("a negative delta must not move the camera")
	}
}

func TestOrbitControllerClamps(t *testing.T) {
	ctrl := NewOrbitController(WithRadiusBounds(2, 20), WithElevationBounds(0.1, 1.2))

	ctrl.SetRadius(100)
	if ctrl.Radius() != 20 {
		t.Fatalf("Radius() = %v, want clamp to 20", ctrl.Radius())
	}
	ctrl.Zoom(1000)
	if ctrl.Radius() != 2 {
		t.Fatalf("Radius() after zoom = %v, want clamp to 2", ctrl.Radius())
	}
	ctrl.SetElevation(-1)
	if ctrl.Elevation() != 0.1 {
		t.Fatalf("Elevation() = %v, want clamp to 0.1", ctrl.Elevation())
	}
	for range 100 {
		ctrl.OrbitUp()
	}
	if ctrl.Elevation() != 1.2 {
		t.Fatalf("Elevation() = %v, want clamp to 1.2", ctrl.Elevation())
	}
}

func TestGPUCameraUniformMarshal(t *testing.T) {
	u := GPUCameraUniform{ViewProj: mgl32.Ident4(), CameraPosition: mgl32.Vec3{1, 2, 3}}
	if u.Size() != GPUCameraUniformSize {
		t.Fatalf("Size() = %d, want %d", u.Size(), GPUCameraUniformSize)
	}
	buf := u.Marshal()
	if len(buf) != GPUCameraUniformSize {
		t.Fatalf("len(Marshal()) = %d", len(buf))
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	if f(0) != 1 || f(20) != 1 || f(4) != 0 {
		t.Fatal("view-projection not serialized column-major")
	}
	if f(64) != 1 || f(68) != 2 || f(72) != 3 || f(76) != 0 {
		t.Fatalf("camera position = %v %v %v pad %v", f(64), f(68), f(72), f(76))
	}
}
