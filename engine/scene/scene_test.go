package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/game_object"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
)

func twoMaterialModel() model.Model {
	return model.NewModel(
		model.WithName("pair"),
		model.WithMeshes(model.Cube(1, 1), model.Plane(1, 1, 0), model.Cube(2, 1)),
	)
}

func TestAddAssignsIDs(t *testing.T) {
	s, err := NewScene("test", camera.NewCamera())
	if err != nil {
		t.Fatal(err)
	}
	m := model.NewModel(model.WithMeshes(model.Cube(1, 0)))
	mat := material.NewMaterial()

	a, err := s.Add(game_object.NewGameObject(game_object.WithModel(m), game_object.WithMaterials(mat)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Add(game_object.NewGameObject(game_object.WithModel(m), game_object.WithMaterials(mat), game_object.WithID(10)))
	if err != nil {
		t.Fatal(err)
	}
	c, _ := s.Add(game_object.NewGameObject(game_object.WithModel(m), game_object.WithMaterials(mat)))

	if a != 1 || b != 10 || c != 11 {
		t.Fatalf("ids = %d %d %d, want 1 10 11", a, b, c)
	}
	if s.Count() != 3 || s.Get(10) == nil {
		t.Fatalf("Count() = %d, Get(10) = %v", s.Count(), s.Get(10))
	}

	s.Remove(10)
	if s.Get(10) != nil || s.Count() != 2 {
		t.Fatal("Remove(10) did not remove the object")
	}
	s.Clear()
	if s.Count() != 0 {
		t.Fatal("Clear() left objects behind")
	}
}

func TestAddValidates(t *testing.T) {
	s, _ := NewScene("test", camera.NewCamera())

	if _, err := s.Add(game_object.NewGameObject()); !errors.Is(err, ErrNoModel) {
		t.Fatalf("Add(no model) error = %v, want ErrNoModel", err)
	}
	obj := game_object.NewGameObject(
		game_object.WithModel(twoMaterialModel()),
		game_object.WithMaterials(material.NewMaterial()),
	)
	if _, err := s.Add(obj); !errors.Is(err, ErrMissingMaterial) {
		t.Fatalf("Add(one material for two) error = %v, want ErrMissingMaterial", err)
	}
	if s.Count() != 0 {
		t.Fatal("invalid objects must not be added")
	}
}

func TestVisitOrder(t *testing.T) {
	m := twoMaterialModel()
	matA := material.NewMaterial(material.WithName("a"))
	matB := material.NewMaterial(material.WithName("b"))
	first := game_object.NewGameObject(game_object.WithModel(m), game_object.WithMaterials(matA, matB))
	hidden := game_object.NewGameObject(game_object.WithModel(m), game_object.WithMaterials(matA, matB), game_object.WithEnabled(false))
	second := game_object.NewGameObject(game_object.WithModel(m), game_object.WithMaterials(matB, matA))

	s, err := NewScene("test", camera.NewCamera(), WithObjects(first, hidden, second))
	if err != nil {
		t.Fatal(err)
	}

	type visit struct {
		obj  game_object.GameObject
		mat  material.Material
		prim model.Primitive
	}
	var got []visit
	err = s.Visit(func(obj game_object.GameObject, mat material.Material, prim model.Primitive) error {
		got = append(got, visit{obj, mat, prim})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	prims := m.Primitives()
	want := []visit{
		{first, matA, prims[1]},
		{first, matB, prims[0]},
		{first, matB, prims[2]},
		{second, matB, prims[1]},
		{second, matA, prims[0]},
		{second, matA, prims[2]},
	}
	if len(got) != len(want) {
		t.Fatalf("Visit() produced %d calls, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visit %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestVisitStopsOnError(t *testing.T) {
	s, err := NewStage(camera.NewCamera(), WithPillarGrid(2, 3))
	if err != nil {
		t.Fatal(err)
	}
	stop := errors.New("stop")
	calls := 0
	err = s.Visit(func(game_object.GameObject, material.Material, model.Primitive) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("Visit() = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestStage(t *testing.T) {
	s, err := NewStage(camera.NewCamera(), WithPillarGrid(4, 5))
	if err != nil {
		t.Fatal(err)
	}
	// ground + 16 pillars + 8 spinning cubes
	if s.Count() != 25 {
		t.Fatalf("Count() = %d, want 25", s.Count())
	}
	if n := len(s.Primitives()); n != 2 {
		t.Fatalf("stage should share one plane and one cube primitive, got %d", n)
	}
	if n := len(s.Materials()); n != 1+len(stagePalette) {
		t.Fatalf("Materials() = %d, want %d", n, 1+len(stagePalette))
	}
	if s.Materials()[0].DiffuseTexture() == nil {
		t.Fatal("ground material should carry the checker texture")
	}

	draws := 0
	_ = s.Visit(func(game_object.GameObject, material.Material, model.Primitive) error {
		draws++
		return nil
	})
	if draws != 25 {
		t.Fatalf("Visit() drew %d primitives, want 25", draws)
	}

	spinner := s.Objects()[2]
	before := spinner.Rotation()
	s.Update(1)
	if spinner.Rotation() == before {
		t.Fatal("Update() should advance spinning objects")
	}
}
