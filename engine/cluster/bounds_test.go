package cluster

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestProjectSphereCulling(t *testing.T) {
	cam := originCamera(1)
	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   bool
	}{
		{"in front", mgl32.Vec3{0, 0, -10}, 1, true},
		{"behind camera", mgl32.Vec3{0, 0, 5}, 1, false},
		{"beyond far", mgl32.Vec3{0, 0, -200}, 5, false},
		{"zero radius", mgl32.Vec3{0, 0, -10}, 0, false},
		{"far off to the side", mgl32.Vec3{100, 0, -10}, 1, false},
		{"straddles near", mgl32.Vec3{0, 0, 0.5}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ProjectSphere(tt.center, tt.radius, cam.proj, cam.near, cam.far, 256, 256)
			if ok != tt.want {
				t.Fatalf("ProjectSphere() visible = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestProjectSphereCrossingNearCoversViewport(t *testing.T) {
	cam := originCamera(1)
	fp, ok := ProjectSphere(mgl32.Vec3{3, 0, -0.5}, 1, cam.proj, cam.near, cam.far, 256, 128)
	if !ok {
		t.Fatal("sphere crossing near must stay visible")
	}
	if fp.MinX != 0 || fp.MinY != 0 || fp.MaxX != 256 || fp.MaxY != 128 {
		t.Fatalf("footprint = %+v, want the whole viewport", fp)
	}
	if fp.MinDepth != cam.near {
		t.Fatalf("MinDepth = %v, want clipped to near", fp.MinDepth)
	}
}

func TestProjectSphereCenteredIsSymmetric(t *testing.T) {
	cam := originCamera(1)
	fp, ok := ProjectSphere(mgl32.Vec3{0, 0, -10}, 1, cam.proj, cam.near, cam.far, 256, 256)
	if !ok {
		t.Fatal("centered sphere must be visible")
	}
	if d := (fp.MinX + fp.MaxX) / 2; d < 127.99 || d > 128.01 {
		t.Fatalf("footprint not centered on x: %+v", fp)
	}
	if d := (fp.MinY + fp.MaxY) / 2; d < 127.99 || d > 128.01 {
		t.Fatalf("footprint not centered on y: %+v", fp)
	}
	if fp.MinDepth != 9 || fp.MaxDepth != 11 {
		t.Fatalf("depth interval = [%v, %v], want [9, 11]", fp.MinDepth, fp.MaxDepth)
	}
}

// A point above the sphere's top tangent must fall outside the footprint once padding is
// removed, so the bound is not wildly conservative.
func TestProjectSphereIsTight(t *testing.T) {
	cam := originCamera(1)
	fp, _ := ProjectSphere(mgl32.Vec3{0, 0, -10}, 1, cam.proj, cam.near, cam.far, 256, 256)
	// half-width of the exact silhouette: tan(asin(1/10)) * 0.5 * 256
	exact := float32(0.10050378) * 0.5 * 256
	if got := (fp.MaxX - fp.MinX) / 2; got > exact+footprintPadding+0.01 || got < exact {
		t.Fatalf("half width = %v, want about %v", got, exact+footprintPadding)
	}
}
