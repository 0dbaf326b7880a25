package scene

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/camera"
	"github.com/Carmen-Shannon/oxy-cluster/engine/game_object"
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// stage holds the parameters of the procedural demo stage.
type stage struct {
	groundExtent float32
	gridSize     int
	spacing      float32
}

// StageBuilderOption is a functional option for configuring NewStage.
type StageBuilderOption func(*stage)

// WithGroundExtent sets the half size of the ground plane in world units.
//
// Parameters:
//   - extent: the half size, values <= 0 are ignored
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithGroundExtent(extent float32) StageBuilderOption {
	return func(s *stage) {
		if extent > 0 {
			s.groundExtent = extent
		}
	}
}

// WithPillarGrid sets the number of pillars per side and their spacing.
//
// Parameters:
//   - size: pillars per side, values < 0 are ignored
//   - spacing: distance between pillar centers, values <= 0 are ignored
//
// Returns:
//   - StageBuilderOption: option function to apply
func WithPillarGrid(size int, spacing float32) StageBuilderOption {
	return func(s *stage) {
		if size >= 0 {
			s.gridSize = size
		}
		if spacing > 0 {
			s.spacing = spacing
		}
	}
}

// stagePalette is cycled over the pillars so neighbouring pillars differ in color.
var stagePalette = []mgl32.Vec4{
	{0.85, 0.85, 0.85, 1},
	{0.80, 0.35, 0.30, 1},
	{0.30, 0.60, 0.85, 1},
	{0.40, 0.75, 0.40, 1},
	{0.90, 0.75, 0.30, 1},
}

// NewStage builds the demo scene: a checkered ground plane, a square grid of pillars, and a
// spinning cube on top of every other pillar. All objects share one cube and one plane model.
//
// Parameters:
//   - cam: the camera the scene is viewed through
//   - options: functional options configuring the stage
//
// Returns:
//   - Scene: the populated scene
//   - error: an error if an object fails validation
func NewStage(cam camera.Camera, options ...StageBuilderOption) (Scene, error) {
	cfg := &stage{
		groundExtent: 40,
		gridSize:     6,
		spacing:      5,
	}
	for _, option := range options {
		option(cfg)
	}

	ground := material.NewMaterial(
		material.WithName("ground"),
		material.WithBaseColor(mgl32.Vec4{1, 1, 1, 1}),
		material.WithSpecular(0.1),
		material.WithDiffuseTexture(common.CheckerTexture(256, 32,
			[4]uint8{200, 200, 200, 255}, [4]uint8{90, 90, 100, 255})),
	)
	palette := make([]material.Material, len(stagePalette))
	for i, c := range stagePalette {
		palette[i] = material.NewMaterial(
			material.WithName(fmt.Sprintf("pillar_%d", i)),
			material.WithBaseColor(c),
			material.WithSpecular(0.5),
		)
	}

	plane := model.NewModel(
		model.WithName("ground"),
		model.WithMeshes(model.Plane(cfg.groundExtent, cfg.groundExtent/4, 0)),
	)
	cube := model.NewModel(
		model.WithName("cube"),
		model.WithMeshes(model.Cube(1, 0)),
	)

	objects := []game_object.GameObject{
		game_object.NewGameObject(
			game_object.WithModel(plane),
			game_object.WithMaterials(ground),
		),
	}

	half := float32(cfg.gridSize-1) * cfg.spacing / 2
	for row := 0; row < cfg.gridSize; row++ {
		for col := 0; col < cfg.gridSize; col++ {
			i := row*cfg.gridSize + col
			x := float32(col)*cfg.spacing - half
			z := float32(row)*cfg.spacing - half
			height := 2 + 2*float32(math.Abs(math.Sin(float64(i)*1.7)))
			mat := palette[i%len(palette)]

			objects = append(objects, game_object.NewGameObject(
				game_object.WithModel(cube),
				game_object.WithMaterials(mat),
				game_object.WithPosition(mgl32.Vec3{x, height / 2, z}),
				game_object.WithScale(mgl32.Vec3{0.8, height, 0.8}),
			))
			if i%2 == 0 {
				objects = append(objects, game_object.NewGameObject(
					game_object.WithModel(cube),
					game_object.WithMaterials(palette[(i+1)%len(palette)]),
					game_object.WithPosition(mgl32.Vec3{x, height + 1, z}),
					game_object.WithScale(mgl32.Vec3{0.7, 0.7, 0.7}),
					game_object.WithRotationSpeed(mgl32.Vec3{0.3, 0.9, 0}),
				))
			}
		}
	}

	return NewScene("stage", cam, WithObjects(objects...))
}
