package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/renderer/renderertest"
	"github.com/go-gl/mathgl/mgl32"
)

func TestMaterialParams(t *testing.T) {
	plain := NewMaterial(WithName("pillar"), WithBaseColor(mgl32.Vec4{0.2, 0.4, 0.6, 1}), WithSpecular(3))
	if plain.Specular() != 1 {
		t.Fatalf("Specular() = %v, want clamp to 1", plain.Specular())
	}
	p := plain.Params()
	if p.Textured != 0 || p.BaseColor != (mgl32.Vec4{0.2, 0.4, 0.6, 1}) {
		t.Fatalf("Params() = %+v", p)
	}

	checker := NewMaterial(WithDiffuseTexture(common.CheckerTexture(8, 2, [4]uint8{255, 255, 255, 255}, [4]uint8{0, 0, 0, 255})))
	if checker.Params().Textured != 1 {
		t.Fatal("a textured material should set the textured flag")
	}

	buf := p.Marshal()
	if p.Size() != GPUMaterialParamsSize || len(buf) != GPUMaterialParamsSize {
		t.Fatalf("params size %d, marshaled %d", p.Size(), len(buf))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])); got != 1 {
		t.Fatalf("marshaled specular = %v, want 1", got)
	}
}

func TestMaterialInitializeOnce(t *testing.T) {
	gpu := renderertest.NewFake(64, 64)
	m := NewMaterial(WithName("ground"))

	for range 2 {
		if err := m.Initialize(gpu); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
	}
	if gpu.Textures != 1 || gpu.Samplers != 1 || len(gpu.InitsOf(m.BindGroupProvider())) != 1 {
		t.Fatalf("textures %d samplers %d inits %d, want one of each", gpu.Textures, gpu.Samplers, len(gpu.InitsOf(m.BindGroupProvider())))
	}
	writes := gpu.WritesTo(m.BindGroupProvider(), paramsBinding)
	if len(writes) != 1 || len(writes[0].Data) != GPUMaterialParamsSize {
		t.Fatal("Initialize should upload the material params once")
	}

	m.Release()
	if err := m.Initialize(gpu); err != nil {
		t.Fatal(err)
	}
	if gpu.Textures != 2 {
		t.Fatal("a released material should rebuild its resources")
	}
}
