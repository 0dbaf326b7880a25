package shader

import (
	"errors"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which pipeline stage a shader is bound to.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the lowercase stage name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptySource is returned by Reflect when the shader has no WGSL source.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrNoEntryPoint is returned by Reflect when the module has no entry point for the shader's stage.
	ErrNoEntryPoint = errors.New("shader: no entry point for stage")
)

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and material binding.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string

	vertexLayouts              []wgpu.VertexBufferLayout
	workgroupSize              [3]uint32
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	module                     *wgpu.ShaderModuleDescriptor

	reflected bool
}

// Shader defines the interface for a WGSL shader stage. It exposes the shader's unique key,
// source code, entry point, reflected bind group layout descriptors, vertex buffer layouts and
// workgroup size needed for pipeline creation and resource wiring.
//
// Reflection is lazy: the metadata accessors return zero values until Reflect has succeeded.
// The renderer backend calls Reflect when a pipeline is registered.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader (vertex, fragment, or compute).
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader. When no entry point was
	// configured it is filled in by Reflect with the first entry point of the matching stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// VertexLayouts retrieves the vertex buffer layouts consumed by a vertex shader.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts in slot order
	VertexLayouts() []wgpu.VertexBufferLayout

	// WorkgroupSize returns the workgroup size of a compute entry point.
	// Returns [0, 0, 0] for non-compute shaders or before Reflect.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// BindGroupLayoutDescriptors retrieves the bind group layout descriptors reflected from the module.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the WGSL variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if nothing is declared there
	BindGroupVarName(group, binding int) string

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Reflect parses and lowers the WGSL source and extracts the entry point, workgroup size
	// and bind group layouts. Subsequent calls are no-ops once a call has succeeded.
	//
	// Returns:
	//   - error: ErrEmptySource, ErrNoEntryPoint, or a wrapped parse/lowering error
	Reflect() error

	// Reflected reports whether Reflect has completed successfully.
	//
	// Returns:
	//   - bool: true after a successful Reflect
	Reflected() bool
}

var _ Shader = &shader{}

// NewShader creates a new Shader for a single pipeline stage.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage this shader is bound to
//   - opts: a variadic list of ShaderBuilderOption functions, typically including WithSource
//
// Returns:
//   - Shader: a new Shader instance with the provided configuration
func NewShader(key string, shaderType ShaderType, opts ...ShaderBuilderOption) Shader {
	s := &shader{
		key:                        key,
		shaderType:                 shaderType,
		bindGroupLayoutDescriptors: make(map[int]wgpu.BindGroupLayoutDescriptor),
		bindingVarNames:            make(map[int]map[int]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workgroupSize
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Reflected() bool {
	return s.reflected
}

// joinSource concatenates WGSL fragments so that shared declarations can be prepended
// to a stage-specific file.
func joinSource(parts []string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		trimmed = append(trimmed, strings.TrimRight(p, "\n"))
	}
	return strings.Join(trimmed, "\n\n")
}

// visibility maps the shader stage onto the wgpu visibility flag used in layout entries.
func (s *shader) visibility() wgpu.ShaderStage {
	switch s.shaderType {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}
