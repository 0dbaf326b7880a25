package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestGameObjectTransform(t *testing.T) {
	obj := NewGameObject(
		WithPosition(mgl32.Vec3{1, 2, 3}),
		WithScale(mgl32.Vec3{2, 2, 2}),
		WithRotationSpeed(mgl32.Vec3{0, 1, 0}),
	)
	if !obj.Enabled() {
		t.Fatal("objects start enabled")
	}

	got := common.TransformPoint(obj.ModelMatrix(), mgl32.Vec3{1, 0, 0})
	if !got.ApproxEqual(mgl32.Vec3{3, 2, 3}) {
		t.Fatalf("model matrix maps (1,0,0) to %v, want (3,2,3)", got)
	}

	obj.Update(0.5)
	if !obj.Rotation().ApproxEqual(mgl32.Vec3{0, 0.5, 0}) {
		t.Fatalf("Rotation() after Update = %v", obj.Rotation())
	}
	if d := obj.ModelData(); d.Model != obj.ModelMatrix() {
		t.Fatal("ModelData should carry the current model matrix")
	}
}

func TestGameObjectProvidersAreUnique(t *testing.T) {
	a, b := NewGameObject(), NewGameObject()
	if a.BindGroupProvider() == b.BindGroupProvider() {
		t.Fatal("every object needs its own bind group provider")
	}
	if a.BindGroupProvider().Label() == b.BindGroupProvider().Label() {
		t.Fatal("provider labels should differ")
	}
}
