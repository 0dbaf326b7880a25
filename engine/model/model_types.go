package model

import "github.com/go-gl/mathgl/mgl32"

// Mesh is CPU-side triangle geometry with the index of the material it is drawn with.
// Primitive generators and any future importer produce Meshes; NewPrimitive turns one
// into GPU-ready bytes.
type Mesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices, counter-clockwise front faces.
	Indices []uint32

	// MaterialIndex references the owning model's material list.
	MaterialIndex int

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin mgl32.Vec3

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax mgl32.Vec3
}

// computeBounds fills BoundingMin and BoundingMax from the vertices.
func (m *Mesh) computeBounds() {
	if len(m.Vertices) == 0 {
		return
	}
	m.BoundingMin = m.Vertices[0].Position
	m.BoundingMax = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		for i := range 3 {
			m.BoundingMin[i] = min(m.BoundingMin[i], v.Position[i])
			m.BoundingMax[i] = max(m.BoundingMax[i], v.Position[i])
		}
	}
}

// Cube builds an axis-aligned cube centered on the origin with flat per-face normals and
// a full 0..1 UV square on every face.
//
// Parameters:
//   - size: the edge length
//   - materialIndex: the material the cube is drawn with
//
// Returns:
//   - Mesh: 24 vertices and 36 indices
func Cube(size float32, materialIndex int) Mesh {
	h := size / 2
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	mesh := Mesh{Name: "cube", MaterialIndex: materialIndex}
	for _, f := range faces {
		base := uint32(len(mesh.Vertices))
		for _, c := range corners {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(h)
			mesh.Vertices = append(mesh.Vertices, GPUVertex{
				Position: p,
				Normal:   f.normal,
				TexCoord: mgl32.Vec2{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	mesh.computeBounds()
	return mesh
}

// Plane builds a horizontal quad at y = 0 facing +Y.
//
// Parameters:
//   - extent: the edge length
//   - tiling: how many times the UV square repeats across the plane
//   - materialIndex: the material the plane is drawn with
//
// Returns:
//   - Mesh: 4 vertices and 6 indices
func Plane(extent, tiling float32, materialIndex int) Mesh {
	h := extent / 2
	up := mgl32.Vec3{0, 1, 0}
	mesh := Mesh{
		Name:          "plane",
		MaterialIndex: materialIndex,
		Vertices: []GPUVertex{
			{Position: mgl32.Vec3{-h, 0, h}, Normal: up, TexCoord: mgl32.Vec2{0, tiling}},
			{Position: mgl32.Vec3{h, 0, h}, Normal: up, TexCoord: mgl32.Vec2{tiling, tiling}},
			{Position: mgl32.Vec3{h, 0, -h}, Normal: up, TexCoord: mgl32.Vec2{tiling, 0}},
			{Position: mgl32.Vec3{-h, 0, -h}, Normal: up, TexCoord: mgl32.Vec2{0, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	mesh.computeBounds()
	return mesh
}
