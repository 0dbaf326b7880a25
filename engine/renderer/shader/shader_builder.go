package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption is a functional option for configuring a Shader at construction time.
type ShaderBuilderOption func(*shader)

// WithSource sets the WGSL source. Multiple parts are concatenated in order, which lets
// a stage file reuse shared struct and helper declarations.
//
// Parameters:
//   - parts: the WGSL source fragments
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source to a shader
func WithSource(parts ...string) ShaderBuilderOption {
	return func(s *shader) {
		s.source = joinSource(parts)
	}
}

// WithEntryPoint pins the entry point name instead of picking the first one of the stage.
//
// Parameters:
//   - name: the WGSL function name of the entry point
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point to a shader
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = name
	}
}

// WithVertexLayouts sets the vertex buffer layouts of a vertex shader.
//
// Parameters:
//   - layouts: the vertex buffer layouts in slot order
//
// Returns:
//   - ShaderBuilderOption: a function that applies the layouts to a shader
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexLayouts = layouts
	}
}
