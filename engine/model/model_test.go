package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

func TestCubeGeometry(t *testing.T) {
	mesh := Cube(2, 3)
	if len(mesh.Vertices) != 24 || len(mesh.Indices) != 36 {
		t.Fatalf("cube = %d vertices %d indices, want 24 and 36", len(mesh.Vertices), len(mesh.Indices))
	}
	if !mesh.BoundingMin.ApproxEqual(mgl32.Vec3{-1, -1, -1}) || !mesh.BoundingMax.ApproxEqual(mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("bounds = %v..%v", mesh.BoundingMin, mesh.BoundingMax)
	}
	// Every triangle must wind counter-clockwise around its face normal.
	if FrontFace != wgpu.FrontFaceCCW {
		t.Fatalf("FrontFace = %v, want CCW", FrontFace)
	}
	for i := 0; i < len(mesh.Indices); i += 3 {
		a := mesh.Vertices[mesh.Indices[i]]
		b := mesh.Vertices[mesh.Indices[i+1]]
		c := mesh.Vertices[mesh.Indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		if n.Dot(a.Normal) <= 0 {
			t.Fatalf("triangle %d winds against its normal %v", i/3, a.Normal)
		}
	}
}

func TestPlaneGeometry(t *testing.T) {
	mesh := Plane(10, 4, 0)
	if len(mesh.Vertices) != 4 || len(mesh.Indices) != 6 {
		t.Fatal("plane should be a single quad")
	}
	a, b, c := mesh.Vertices[0].Position, mesh.Vertices[1].Position, mesh.Vertices[2].Position
	if n := b.Sub(a).Cross(c.Sub(a)); n.Y() <= 0 {
		t.Fatalf("plane faces %v, want +Y", n)
	}
	if mesh.Vertices[1].TexCoord.X() != 4 {
		t.Fatal("tiling should scale the UVs")
	}
}

func TestNewPrimitiveMarshalsMesh(t *testing.T) {
	mesh := Cube(1, 2)
	p := NewPrimitive(mesh)
	if p.MaterialIndex() != 2 || p.IndexCount() != 36 {
		t.Fatalf("material %d, index count %d", p.MaterialIndex(), p.IndexCount())
	}
	if len(p.VertexData()) != 24*GPUVertexSize || len(p.IndexData()) != 36*4 {
		t.Fatalf("vertex bytes %d, index bytes %d", len(p.VertexData()), len(p.IndexData()))
	}
	if got := binary.LittleEndian.Uint32(p.IndexData()[4:]); got != mesh.Indices[1] {
		t.Fatalf("second index = %d, want %d", got, mesh.Indices[1])
	}
	x := math.Float32frombits(binary.LittleEndian.Uint32(p.VertexData()[GPUVertexSize:]))
	if x != mesh.Vertices[1].Position.X() {
		t.Fatalf("second vertex x = %v, want %v", x, mesh.Vertices[1].Position.X())
	}
	want := float32(math.Sqrt(3) / 2)
	if !mgl32.FloatEqualThreshold(p.BoundingRadius(), want, 1e-5) {
		t.Fatalf("BoundingRadius() = %v, want %v", p.BoundingRadius(), want)
	}
	if p.MeshProvider() == nil || p.MeshProvider() == NewPrimitive(mesh).MeshProvider() {
		t.Fatal("every primitive needs its own mesh provider")
	}
}

func TestModelPrimitivesOf(t *testing.T) {
	m := NewModel(WithName("stage"), WithMeshes(Plane(20, 8, 0), Cube(1, 1), Cube(2, 1)))
	if len(m.Primitives()) != 3 {
		t.Fatalf("Primitives() = %d, want 3", len(m.Primitives()))
	}
	if got := m.PrimitivesOf(1); len(got) != 2 || got[0].BoundingRadius() >= got[1].BoundingRadius() {
		t.Fatal("PrimitivesOf should keep creation order")
	}
	if len(m.PrimitivesOf(5)) != 0 {
		t.Fatal("unknown material should have no primitives")
	}
	if !mgl32.FloatEqualThreshold(m.BoundingRadius(), float32(math.Sqrt(200)), 1e-4) {
		t.Fatalf("BoundingRadius() = %v", m.BoundingRadius())
	}
}

func TestGPUTypeSizes(t *testing.T) {
	var v GPUVertex
	if v.Size() != GPUVertexSize || VertexLayout().ArrayStride != GPUVertexSize {
		t.Fatalf("vertex size %d, stride %d", v.Size(), VertexLayout().ArrayStride)
	}
	d := NewGPUModelData(mgl32.Scale3D(2, 2, 2))
	if d.Size() != GPUModelDataSize || len(d.Marshal()) != GPUModelDataSize {
		t.Fatal("model data must be 128 bytes")
	}
	if !mgl32.FloatEqualThreshold(d.NormalMatrix[0], 0.5, 1e-6) {
		t.Fatalf("normal matrix scale = %v, want 0.5", d.NormalMatrix[0])
	}
	if singular := NewGPUModelData(mgl32.Mat4{}); singular.NormalMatrix != mgl32.Ident4() {
		t.Fatal("a singular model matrix should fall back to an identity normal matrix")
	}
}
