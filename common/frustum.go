package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents the plane n·p + d = 0. Points with n·p + d >= 0 lie on the inner side.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the signed distance from p to the plane.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Frustum holds the six inward-facing planes of a view frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts normalized frustum planes from a combined projection * view
// matrix using the Gribb/Hartmann method. The near plane is taken from row 2 alone
// because WebGPU clip depth spans [0, w] rather than [-w, w].
//
// Parameters:
//   - viewProj: the column-major projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	var f Frustum
	f.Planes[FrustumLeft] = planeFromRow(r3.Add(r0))
	f.Planes[FrustumRight] = planeFromRow(r3.Sub(r0))
	f.Planes[FrustumBottom] = planeFromRow(r3.Add(r1))
	f.Planes[FrustumTop] = planeFromRow(r3.Sub(r1))
	f.Planes[FrustumNear] = planeFromRow(r2)
	f.Planes[FrustumFar] = planeFromRow(r3.Sub(r2))
	return f
}

// IntersectsSphere reports whether a sphere is at least partially inside the frustum.
// The test is conservative: spheres near frustum corners may pass without intersecting.
//
// Parameters:
//   - center: sphere center in the space the frustum was extracted in
//   - radius: sphere radius
//
// Returns:
//   - bool: false only when the sphere lies entirely outside one plane
func (f Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}

func planeFromRow(row mgl32.Vec4) Plane {
	p := Plane{Normal: row.Vec3(), Distance: row.W()}
	if l := p.Normal.Len(); l > 0 {
		p.Normal = p.Normal.Mul(1 / l)
		p.Distance /= l
	}
	return p
}
