package light

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestHueToRGB(t *testing.T) {
	tests := []struct {
		name string
		hue  float32
		want mgl32.Vec3
	}{
		{"red", 0, mgl32.Vec3{1, 0.2, 0.2}},
		{"green", 1.0 / 3.0, mgl32.Vec3{0.2, 1, 0.2}},
		{"blue", 2.0 / 3.0, mgl32.Vec3{0.2, 0.2, 1}},
		{"wraps to red", 1, mgl32.Vec3{1, 0.2, 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HueToRGB(tt.hue)
			if !got.ApproxEqualThreshold(tt.want, 1e-4) {
				t.Fatalf("HueToRGB(%v) = %v, want %v", tt.hue, got, tt.want)
			}
		})
	}
}

func TestInfluenceRadius(t *testing.T) {
	r := InfluenceRadius(mgl32.Vec3{0.1, 0.05, 0.02}, 0.0025)
	want := float32(math.Sqrt(39))
	if math.Abs(float64(r-want)) > 1e-4 {
		t.Fatalf("InfluenceRadius() = %v, want %v", r, want)
	}
	if InfluenceRadius(mgl32.Vec3{0.001, 0.001, 0.001}, 0.0025) != 0 {
		t.Fatal("a light dimmer than the cutoff should have zero radius")
	}
	if InfluenceRadius(mgl32.Vec3{1, 1, 1}, 0) != 0 {
		t.Fatal("a non-positive cutoff should yield zero radius")
	}
}

func TestAttenuationIsZeroBeyondRadius(t *testing.T) {
	const radius = 6
	if a := Attenuation(0, radius); a != 1 {
		t.Fatalf("Attenuation(0) = %v, want 1", a)
	}
	prev := Attenuation(0, radius)
	for d := float32(0.25); d < radius; d += 0.25 {
		a := Attenuation(d, radius)
		if a > prev {
			t.Fatalf("Attenuation not monotonic at d=%v: %v > %v", d, a, prev)
		}
		prev = a
	}
	for _, d := range []float32{radius, radius + 0.1, 100} {
		if a := Attenuation(d, radius); a != 0 {
			t.Fatalf("Attenuation(%v) = %v, want 0", d, a)
		}
	}
	if Attenuation(1, 0) != 0 {
		t.Fatal("zero radius light must not contribute")
	}
}

func TestMotionStaysInBoundsAndIsDeterministic(t *testing.T) {
	b := DefaultBounds
	for i := uint32(0); i < 2000; i++ {
		for _, tm := range []float32{0, 0.5, 13.7, 1000} {
			p := Motion(i, tm, DefaultMotionSpeed, b)
			if !b.Contains(p) {
				t.Fatalf("Motion(%d, %v) = %v outside bounds", i, tm, p)
			}
			if q := Motion(i, tm, DefaultMotionSpeed, b); q != p {
				t.Fatalf("Motion(%d, %v) not deterministic: %v vs %v", i, tm, p, q)
			}
		}
	}
	if Motion(1, 2, DefaultMotionSpeed, b) == Motion(2, 2, DefaultMotionSpeed, b) {
		t.Fatal("distinct lights should not share a path")
	}
}

func TestPCGHashKnownValues(t *testing.T) {
	// Reference values of the PCG-RXS-M-XS 32-bit output permutation.
	if got := pcgHash(0); got != 129708002 {
		t.Fatalf("pcgHash(0) = %d, want 129708002", got)
	}
	if pcgHash(1) == pcgHash(2) {
		t.Fatal("pcgHash should separate neighbouring inputs")
	}
}

func TestBoundsClamp(t *testing.T) {
	b := Bounds{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	got := b.Clamp(mgl32.Vec3{-5, 0.5, 9})
	if got != (mgl32.Vec3{-1, 0.5, 1}) {
		t.Fatalf("Clamp() = %v", got)
	}
}
