package scene

import (
	"github.com/Carmen-Shannon/oxy-cluster/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene) error

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) error {
		for _, obj := range objects {
			if err := validate(obj); err != nil {
				return err
			}
			s.add(obj)
		}
		return nil
	}
}
