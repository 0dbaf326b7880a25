package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Light is the CPU mirror of one point light record in the light set buffer.
//
// Position is rewritten every frame by the light simulation. Radius and Color are fixed
// when the light set is generated.
type Light struct {
	Position mgl32.Vec3
	Radius   float32 // influence radius, contribution is exactly zero beyond it
	Color    mgl32.Vec3
}

// Bounds is the world-space box every light position is kept inside.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Extent returns Max - Min.
func (b Bounds) Extent() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Contains reports whether p lies inside the box, boundary included.
func (b Bounds) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Clamp returns p clamped component-wise into the box.
func (b Bounds) Clamp(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		mgl32.Clamp(p[0], b.Min[0], b.Max[0]),
		mgl32.Clamp(p[1], b.Min[1], b.Max[1]),
		mgl32.Clamp(p[2], b.Min[2], b.Max[2]),
	}
}

// HueToRGB converts a hue in [0, 1] into a pastel RGB color. The fully saturated hue is
// blended 80% of the way from white so that overlapping lights stay readable.
//
// Parameters:
//   - h: the hue, where 0 and 1 are both red
//
// Returns:
//   - mgl32.Vec3: the color with every channel in [0, 1]
func HueToRGB(h float32) mgl32.Vec3 {
	f := func(n float32) float32 {
		k := float32(math.Mod(float64(n+h*6), 6))
		if k < 0 {
			k += 6
		}
		return 1 - max(min(k, 4-k, 1), 0)
	}
	white := mgl32.Vec3{1, 1, 1}
	hue := mgl32.Vec3{f(5), f(3), f(1)}
	return white.Add(hue.Sub(white).Mul(0.8))
}

// InfluenceRadius returns the distance at which a light of the given color stops
// contributing more than minIntensity. The brightest channel b decides the radius:
// b / (1 + r²) = minIntensity, so r = sqrt(b/minIntensity - 1). Lights dimmer than the
// cutoff get a zero radius.
//
// Parameters:
//   - color: the intensity-scaled light color
//   - minIntensity: the cutoff, must be > 0
//
// Returns:
//   - float32: the influence radius in world units
func InfluenceRadius(color mgl32.Vec3, minIntensity float32) float32 {
	if minIntensity <= 0 {
		return 0
	}
	b := max(color[0], color[1], color[2])
	ratio := b/minIntensity - 1
	if ratio <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(ratio)))
}

// Attenuation is the distance falloff shared by every shading pass:
//
//	window(d, r) / (1 + d²),  window = clamp(1 - (d/r)^4, 0, 1)²
//
// The window forces the contribution to exactly zero at and beyond radius, which is what
// lets clustering discard a light outside its influence sphere without a visible seam.
// The WGSL twin is light_attenuation in assets/light_types.wgsl.
//
// Parameters:
//   - d: the distance from the light
//   - radius: the light's influence radius
//
// Returns:
//   - float32: the attenuation factor in [0, 1]
func Attenuation(d, radius float32) float32 {
	if radius <= 0 {
		return 0
	}
	ratio := d / radius
	ratio2 := ratio * ratio
	window := mgl32.Clamp(1-ratio2*ratio2, 0, 1)
	return window * window / (1 + d*d)
}
