package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMeshes is an option builder that appends one Primitive per mesh.
//
// Parameters:
//   - meshes: the meshes to convert
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...Mesh) ModelBuilderOption {
	return func(m *model) {
		for _, mesh := range meshes {
			m.primitives = append(m.primitives, NewPrimitive(mesh))
		}
	}
}

// WithPrimitives is an option builder that appends already built primitives.
//
// Parameters:
//   - primitives: the primitives to append
//
// Returns:
//   - ModelBuilderOption: a function that applies the primitives option to a model
func WithPrimitives(primitives ...Primitive) ModelBuilderOption {
	return func(m *model) {
		m.primitives = append(m.primitives, primitives...)
	}
}
