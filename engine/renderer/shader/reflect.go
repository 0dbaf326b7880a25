package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

func (s *shader) Reflect() error {
	if s.reflected {
		return nil
	}
	if strings.TrimSpace(s.source) == "" {
		return fmt.Errorf("%w: %s", ErrEmptySource, s.key)
	}

	ast, err := naga.Parse(s.source)
	if err != nil {
		return fmt.Errorf("shader %s: parse: %w", s.key, err)
	}
	module, err := naga.LowerWithSource(ast, s.source)
	if err != nil {
		return fmt.Errorf("shader %s: lower: %w", s.key, err)
	}

	ep, ok := findEntryPoint(module, irStage(s.shaderType), s.entryPoint)
	if !ok {
		if s.entryPoint != "" {
			return fmt.Errorf("%w: %s has no %s entry point %q", ErrNoEntryPoint, s.key, s.shaderType, s.entryPoint)
		}
		return fmt.Errorf("%w: %s has no %s entry point", ErrNoEntryPoint, s.key, s.shaderType)
	}
	s.entryPoint = ep.Name
	if s.shaderType == ShaderTypeCompute {
		s.workgroupSize = ep.Workgroup
	}

	s.bindGroupLayoutDescriptors, s.bindingVarNames = reflectBindGroups(module, s.key, s.visibility())
	s.reflected = true
	return nil
}

// irStage maps a ShaderType onto the naga IR stage.
func irStage(t ShaderType) ir.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return ir.StageVertex
	case ShaderTypeFragment:
		return ir.StageFragment
	default:
		return ir.StageCompute
	}
}

// findEntryPoint returns the named entry point of the given stage, or the first entry point
// of that stage when name is empty.
func findEntryPoint(module *ir.Module, stage ir.ShaderStage, name string) (ir.EntryPoint, bool) {
	for _, ep := range module.EntryPoints {
		if ep.Stage != stage {
			continue
		}
		if name == "" || ep.Name == name {
			return ep, true
		}
	}
	return ir.EntryPoint{}, false
}

// reflectBindGroups walks every resource-bound global variable of the module and builds one
// layout descriptor per group. Entries are sorted by binding index.
//
// Parameters:
//   - module: the lowered IR module
//   - label: the label prefix applied to each descriptor
//   - visibility: the stage visibility assigned to every entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func reflectBindGroups(module *ir.Module, label string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		entry, ok := layoutEntry(module, gv, visibility)
		if !ok {
			continue
		}
		group := int(gv.Binding.Group)
		entries[group] = append(entries[group], entry)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][int(gv.Binding.Binding)] = gv.Name
	}

	descriptors := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for group, list := range entries {
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		descriptors[group] = wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s Group %d", label, group),
			Entries: list,
		}
	}
	return descriptors, names
}

// layoutEntry classifies one global variable into a bind group layout entry.
// Returns false for variables that cannot be expressed as a single layout entry.
func layoutEntry(module *ir.Module, gv ir.GlobalVariable, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, bool) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    gv.Binding.Binding,
		Visibility: visibility,
	}

	switch gv.Space {
	case ir.SpaceUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		return entry, true
	case ir.SpaceStorage:
		if gv.Access == ir.StorageRead {
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		} else {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		return entry, true
	case ir.SpaceHandle:
	default:
		return entry, false
	}

	if int(gv.Type) >= len(module.Types) {
		return entry, false
	}
	switch inner := module.Types[gv.Type].Inner.(type) {
	case ir.SamplerType:
		if inner.Comparison {
			entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
		} else {
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		return entry, true
	case ir.ImageType:
		if inner.Class == ir.ImageClassStorage {
			// storage textures need a texel format the IR carries in its own enum; callers
			// that use them supply an explicit layout instead.
			return entry, false
		}
		entry.Texture.ViewDimension = viewDimension(inner.Dim, inner.Arrayed)
		entry.Texture.Multisampled = inner.Multisampled
		if inner.Class == ir.ImageClassDepth {
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		} else {
			entry.Texture.SampleType = sampleType(inner.SampledKind)
		}
		return entry, true
	default:
		return entry, false
	}
}

func viewDimension(dim ir.ImageDimension, arrayed bool) wgpu.TextureViewDimension {
	switch dim {
	case ir.Dim1D:
		return wgpu.TextureViewDimension1D
	case ir.Dim3D:
		return wgpu.TextureViewDimension3D
	case ir.DimCube:
		if arrayed {
			return wgpu.TextureViewDimensionCubeArray
		}
		return wgpu.TextureViewDimensionCube
	default:
		if arrayed {
			return wgpu.TextureViewDimension2DArray
		}
		return wgpu.TextureViewDimension2D
	}
}

func sampleType(kind ir.ScalarKind) wgpu.TextureSampleType {
	switch kind {
	case ir.ScalarSint:
		return wgpu.TextureSampleTypeSint
	case ir.ScalarUint:
		return wgpu.TextureSampleTypeUint
	default:
		return wgpu.TextureSampleTypeFloat
	}
}

// MergeBindGroupLayouts combines the layouts of several stages that share one pipeline.
// Entries with the same binding index are merged by OR-ing their visibility flags.
//
// Parameters:
//   - layouts: the per-stage descriptors keyed by group index
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func MergeBindGroupLayouts(layouts ...map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, stage := range layouts {
		for group, desc := range stage {
			existing, ok := merged[group]
			if !ok {
				entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
				copy(entries, desc.Entries)
				merged[group] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries}
				continue
			}
			for _, e := range desc.Entries {
				found := false
				for i := range existing.Entries {
					if existing.Entries[i].Binding == e.Binding {
						existing.Entries[i].Visibility |= e.Visibility
						found = true
						break
					}
				}
				if !found {
					existing.Entries = append(existing.Entries, e)
				}
			}
			sort.Slice(existing.Entries, func(i, j int) bool { return existing.Entries[i].Binding < existing.Entries[j].Binding })
			merged[group] = existing
		}
	}
	return merged
}
