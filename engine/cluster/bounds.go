package cluster

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// footprintPadding widens every projected footprint by half a pixel so rounding in the
// tangent computation never drops a tile the sphere grazes.
const footprintPadding = 0.5

// Footprint is the conservative screen-space extent of a light's influence sphere together
// with the depth interval it spans. Pixel coordinates follow Grid: origin top-left, y down.
type Footprint struct {
	MinX, MinY float32
	MaxX, MaxY float32
	MinDepth   float32
	MaxDepth   float32
}

// ProjectSphere computes the footprint of a view-space sphere under a symmetric perspective
// projection. On each axis the bound comes from the two planes through the eye tangent to
// the sphere, which is exact for the sphere's silhouette. A sphere that crosses the near
// plane has no bounded silhouette and covers the whole viewport. Spheres entirely in front
// of near or beyond far are culled.
//
// The WGSL twin is project_sphere in assets/cluster.wgsl.
//
// Parameters:
//   - center: the sphere center in view space (camera looks down -Z)
//   - radius: the sphere radius
//   - proj: the projection matrix, only P00 and P11 are read
//   - near: the near plane distance
//   - far: the far plane distance
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//
// Returns:
//   - Footprint: the padded pixel rectangle and clipped depth interval
//   - bool: false when the sphere cannot touch any pixel
func ProjectSphere(center mgl32.Vec3, radius float32, proj mgl32.Mat4, near, far float32, width, height uint32) (Footprint, bool) {
	if radius <= 0 {
		return Footprint{}, false
	}
	depth := -center.Z()
	if depth+radius < near || depth-radius > far {
		return Footprint{}, false
	}

	w, h := float32(width), float32(height)
	fp := Footprint{
		MinDepth: max(depth-radius, near),
		MaxDepth: min(depth+radius, far),
	}

	if depth-radius < near {
		fp.MinX, fp.MinY, fp.MaxX, fp.MaxY = 0, 0, w, h
		return fp, true
	}

	p00, p11 := proj[0], proj[5]
	sxMin, sxMax := tangentSlopes(center.X(), depth, radius)
	syMin, syMax := tangentSlopes(center.Y(), depth, radius)

	fp.MinX = (p00*sxMin*0.5+0.5)*w - footprintPadding
	fp.MaxX = (p00*sxMax*0.5+0.5)*w + footprintPadding
	fp.MinY = (0.5-p11*syMax*0.5)*h - footprintPadding
	fp.MaxY = (0.5-p11*syMin*0.5)*h + footprintPadding

	if fp.MaxX < 0 || fp.MinX > w || fp.MaxY < 0 || fp.MinY > h {
		return Footprint{}, false
	}
	return fp, true
}

// tangentSlopes returns the slopes (lateral offset per unit depth) of the two lines through
// the origin tangent to the circle with lateral center c, depth d and radius r. Requires d > r.
func tangentSlopes(c, d, r float32) (float32, float32) {
	cf, df, rf := float64(c), float64(d), float64(r)
	t := math.Sqrt(max(cf*cf+df*df-rf*rf, 0))
	lo := (cf*t - rf*df) / (df*t + cf*rf)
	hi := (cf*t + rf*df) / (df*t - cf*rf)
	return float32(lo), float32(hi)
}
