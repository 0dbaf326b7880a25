package material

import (
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithSpecular is an option builder that sets the specular strength, clamped to [0, 1].
//
// Parameters:
//   - specular: the specular strength
//
// Returns:
//   - MaterialBuilderOption: a function that applies the specular option to a material
func WithSpecular(specular float32) MaterialBuilderOption {
	return func(m *material) {
		m.specular = mgl32.Clamp(specular, 0, 1)
	}
}

// WithDiffuseTexture is an option builder that sets the albedo texture.
//
// Parameters:
//   - tex: the RGBA8 pixels of the albedo map
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(tex common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = &tex
	}
}
