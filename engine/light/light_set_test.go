package light

import (
	"encoding/binary"
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

func TestNewLightSetDefaults(t *testing.T) {
	s, err := NewLightSet()
	if err != nil {
		t.Fatalf("NewLightSet() error = %v", err)
	}
	if s.Count() != DefaultLightCount || s.MaxLights() != DefaultMaxLights {
		t.Fatalf("Count/MaxLights = %d/%d, want %d/%d", s.Count(), s.MaxLights(), DefaultLightCount, DefaultMaxLights)
	}
	if got := s.Size(); got != 16+5000*32 {
		t.Fatalf("Size() = %d, want %d", got, 16+5000*32)
	}
	for i, l := range s.Lights() {
		if l.Radius <= 0 {
			t.Fatalf("light %d has radius %v", i, l.Radius)
		}
		if max(l.Color[0], l.Color[1], l.Color[2]) > DefaultIntensity+1e-6 {
			t.Fatalf("light %d color %v exceeds intensity", i, l.Color)
		}
	}
}

func TestNewLightSetValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []LightSetBuilderOption
		want error
	}{
		{"count above max", []LightSetBuilderOption{WithMaxLights(10), WithLightCount(11)}, ErrLightCountExceedsMax},
		{"zero capacity", []LightSetBuilderOption{WithMaxLights(0)}, ErrInvalidMaxLights},
		{"zero cutoff", []LightSetBuilderOption{WithMinIntensity(0)}, ErrInvalidMinIntensity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLightSet(tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewLightSet() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSeedIsReproducible(t *testing.T) {
	a, _ := NewLightSet(WithMaxLights(64), WithLightCount(64), WithSeed(7))
	b, _ := NewLightSet(WithMaxLights(64), WithLightCount(64), WithSeed(7))
	c, _ := NewLightSet(WithMaxLights(64), WithLightCount(64), WithSeed(8))
	if a.Lights()[10] != b.Lights()[10] {
		t.Fatal("equal seeds should produce equal sets")
	}
	same := true
	for i := range c.Lights() {
		if c.Lights()[i].Color != a.Lights()[i].Color {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds should produce different colors")
	}
}

func TestSetLightCount(t *testing.T) {
	s, _ := NewLightSet(WithMaxLights(100), WithLightCount(10))
	if err := s.SetLightCount(100); err != nil {
		t.Fatalf("SetLightCount(max) error = %v", err)
	}
	if len(s.Lights()) != 100 {
		t.Fatalf("len(Lights()) = %d, want 100", len(s.Lights()))
	}
	if err := s.SetLightCount(101); !errors.Is(err, ErrLightCountExceedsMax) {
		t.Fatalf("SetLightCount(101) error = %v, want ErrLightCountExceedsMax", err)
	}
	if s.Count() != 100 {
		t.Fatal("a rejected count must not change the set")
	}
	if err := s.SetLightCount(-1); err == nil {
		t.Fatal("negative count should fail")
	}
	if err := s.SetLightCount(0); err != nil || len(s.Lights()) != 0 {
		t.Fatalf("SetLightCount(0) error = %v, len = %d", err, len(s.Lights()))
	}
}

func TestMarshalLayout(t *testing.T) {
	s, _ := NewLightSet(WithMaxLights(4), WithLightCount(3))
	buf := s.Marshal()
	if uint64(len(buf)) != s.Size() {
		t.Fatalf("len(Marshal()) = %d, want %d", len(buf), s.Size())
	}
	if got := binary.LittleEndian.Uint32(buf[0:4]); got != 3 {
		t.Fatalf("header count = %d, want 3", got)
	}
	l := s.Lights()[2]
	rec := buf[16+2*32 : 16+3*32]
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(rec[off : off+4])) }
	if f(0) != l.Position[0] || f(8) != l.Position[2] || f(12) != l.Radius || f(16) != l.Color[0] || f(24) != l.Color[2] {
		t.Fatalf("record 2 does not match light %+v", l)
	}
	if len(s.MarshalHeader()) != GPULightSetHeaderSize {
		t.Fatal("header must be 16 bytes")
	}
}

func TestGPUTypeSizes(t *testing.T) {
	if (&GPULight{}).Size() != GPULightSize {
		t.Fatalf("GPULight size = %d", (&GPULight{}).Size())
	}
	if (&GPULightSetHeader{}).Size() != GPULightSetHeaderSize {
		t.Fatalf("GPULightSetHeader size = %d", (&GPULightSetHeader{}).Size())
	}
	if (&GPUSimulationUniforms{}).Size() != GPUSimulationUniformsSize {
		t.Fatalf("GPUSimulationUniforms size = %d", (&GPUSimulationUniforms{}).Size())
	}
}

func TestSimulatePoolMatchesSerial(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(max(runtime.NumCPU()-1, 1), 256, time.Second)
	defer pool.Stop()

	serial, _ := NewLightSet(WithMaxLights(3000), WithLightCount(3000))
	parallel, _ := NewLightSet(WithMaxLights(3000), WithLightCount(3000))

	serial.Simulate(nil, 4.25)
	parallel.Simulate(pool, 4.25)

	for i := range serial.Lights() {
		if serial.Lights()[i] != parallel.Lights()[i] {
			t.Fatalf("light %d differs: %+v vs %+v", i, serial.Lights()[i], parallel.Lights()[i])
		}
		if serial.Lights()[i].Position != Motion(uint32(i), 4.25, DefaultMotionSpeed, DefaultBounds) {
			t.Fatalf("light %d was not moved to Motion()", i)
		}
	}
}

func TestSimulateLeavesColorAndRadius(t *testing.T) {
	s, _ := NewLightSet(WithMaxLights(8), WithLightCount(8))
	before := append([]Light(nil), s.Lights()...)
	s.Simulate(nil, 9)
	for i, l := range s.Lights() {
		if l.Color != before[i].Color || l.Radius != before[i].Radius {
			t.Fatalf("light %d color or radius changed", i)
		}
	}
}
