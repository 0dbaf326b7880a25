package game_object

import (
	"github.com/Carmen-Shannon/oxy-cluster/engine/model"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithEnabled sets whether the GameObject is enabled for rendering.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithModel sets the Model for this GameObject.
//
// Parameters:
//   - m: the Model to associate
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Model
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mdl = m
	}
}

// WithMaterials sets the materials the model's primitives index into.
//
// Parameters:
//   - materials: the materials in primitive material-index order
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the materials
func WithMaterials(materials ...material.Material) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.materials = materials
	}
}

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the position
func WithPosition(p mgl32.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = p
	}
}

// WithScale sets the initial per-axis scale.
//
// Parameters:
//   - s: the scale factors
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the scale
func WithScale(s mgl32.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = s
	}
}

// WithRotation sets the initial Euler rotation in radians.
//
// Parameters:
//   - r: the rotation angles around X, Y and Z
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation
func WithRotation(r mgl32.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = r
	}
}

// WithRotationSpeed sets the spin applied by Update in radians per second.
//
// Parameters:
//   - r: the angular speed around X, Y and Z
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation speed
func WithRotationSpeed(r mgl32.Vec3) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotationSpeed = r
	}
}
