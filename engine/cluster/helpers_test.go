package cluster

import (
	"math"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/go-gl/mathgl/mgl32"
)

type testCamera struct {
	view, proj mgl32.Mat4
	near, far  float32
}

func (c testCamera) View() mgl32.Mat4       { return c.view }
func (c testCamera) Projection() mgl32.Mat4 { return c.proj }
func (c testCamera) Near() float32          { return c.near }
func (c testCamera) Far() float32           { return c.far }

// originCamera sits at the origin looking down -Z with a 90 degree vertical field of view,
// so P00 = P11 = 1 on a square viewport.
func originCamera(aspect float32) testCamera {
	return testCamera{
		view: mgl32.Ident4(),
		proj: common.Perspective(math.Pi/2, aspect, 0.1, 100),
		near: 0.1,
		far:  100,
	}
}

// rayHitsSphere intersects the view-space ray s*dir (dir.z = -1, so s is the view depth)
// with a sphere and returns the depth interval of the hit clipped to [lo, hi].
func rayHitsSphere(dir, center mgl32.Vec3, radius, lo, hi float32) (float32, float32, bool) {
	d := dir.Vec4(0)
	c := center.Vec4(0)
	a := float64(d.Dot(d))
	b := -2 * float64(d.Dot(c))
	cc := float64(c.Dot(c)) - float64(radius)*float64(radius)
	disc := b*b - 4*a*cc
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	s0 := float32((-b - sq) / (2 * a))
	s1 := float32((-b + sq) / (2 * a))
	s0 = max(s0, lo)
	s1 = min(s1, hi)
	if s1 <= s0 {
		return 0, 0, false
	}
	return s0, s1, true
}
