package cluster

import (
	"encoding/binary"
	"math/rand/v2"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestPool(t *testing.T) worker.DynamicWorkerPool {
	t.Helper()
	pool := worker.NewDynamicWorkerPool(max(runtime.NumCPU()-1, 1), 256, time.Second)
	t.Cleanup(pool.Stop)
	return pool
}

func gridFor(t *testing.T, w, h int, tile, slices uint32) Grid {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TileWidth, cfg.TileHeight, cfg.DepthSlices = tile, tile, slices
	g, err := NewGrid(w, h, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// checkWellFormed asserts the structural guarantees every assignment must hold.
func checkWellFormed(t *testing.T, a *Assignment, lightCount int) {
	t.Helper()
	if uint32(len(a.Counts)) != a.Grid.ClusterCount() || uint32(len(a.Indices)) != a.Grid.ClusterCount()*a.Capacity {
		t.Fatalf("assignment sized %d/%d for %d clusters", len(a.Counts), len(a.Indices), a.Grid.ClusterCount())
	}
	for c := uint32(0); c < a.Grid.ClusterCount(); c++ {
		if a.Counts[c] > a.Capacity {
			t.Fatalf("cluster %d count %d exceeds capacity %d", c, a.Counts[c], a.Capacity)
		}
		ids := a.Lights(c)
		for i, id := range ids {
			if int(id) >= lightCount {
				t.Fatalf("cluster %d holds light %d, only %d lights", c, id, lightCount)
			}
			if i > 0 && ids[i-1] >= id {
				t.Fatalf("cluster %d indices not strictly ascending: %v", c, ids)
			}
		}
	}
	buf := a.Marshal()
	stride := int(1 + a.Capacity)
	if len(buf) != len(a.Counts)*stride*4 {
		t.Fatalf("Marshal() length = %d, want %d", len(buf), len(a.Counts)*stride*4)
	}
	for c, count := range a.Counts {
		if got := binary.LittleEndian.Uint32(buf[c*stride*4:]); got != count {
			t.Fatalf("marshaled count of cluster %d = %d, want %d", c, got, count)
		}
	}
}

func TestAssignThreeLightsOnTwoByTwoGrid(t *testing.T) {
	g := gridFor(t, 256, 256, 128, 1)
	if g.TilesX != 2 || g.TilesY != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", g.TilesX, g.TilesY)
	}
	lights := []light.Light{
		{Position: mgl32.Vec3{-2, 2, -10}, Radius: 1},   // upper left quadrant
		{Position: mgl32.Vec3{0, 0, -10}, Radius: 1},    // on the screen center
		{Position: mgl32.Vec3{3, -3, -10}, Radius: 0.5}, // lower right quadrant
	}

	a := Assign(nil, g, originCamera(1), lights, 8)
	checkWellFormed(t, a, len(lights))

	want := map[[2]uint32][]uint32{
		{0, 0}: {0, 1},
		{1, 0}: {1},
		{0, 1}: {1},
		{1, 1}: {1, 2},
	}
	for tile, ids := range want {
		got := a.Lights(g.ClusterIndex(tile[0], tile[1], 0))
		if !slices.Equal(got, ids) {
			t.Errorf("tile %v lights = %v, want %v", tile, got, ids)
		}
	}
	if len(a.Truncated()) != 0 {
		t.Fatalf("Truncated() = %v, want none", a.Truncated())
	}
}

func TestAssignZeroLights(t *testing.T) {
	g := gridFor(t, 300, 200, 16, 4)
	a := Assign(newTestPool(t), g, originCamera(1.5), nil, 32)
	checkWellFormed(t, a, 0)
	for c, n := range a.Counts {
		if n != 0 {
			t.Fatalf("cluster %d count = %d with no lights", c, n)
		}
	}
	for _, b := range a.Marshal() {
		if b != 0 {
			t.Fatal("zero lights must marshal to an all-zero buffer")
		}
	}
}

func TestAssignCapacityStress(t *testing.T) {
	const n, capacity = 2000, 16
	lights := make([]light.Light, n)
	for i := range lights {
		lights[i] = light.Light{Position: mgl32.Vec3{0.5, -0.25, -8}, Radius: 2}
	}
	g := gridFor(t, 320, 240, 16, 1)
	a := Assign(newTestPool(t), g, originCamera(320.0/240.0), lights, capacity)
	checkWellFormed(t, a, n)

	touched := 0
	for c := uint32(0); c < g.ClusterCount(); c++ {
		if a.Counts[c] == 0 {
			continue
		}
		touched++
		if a.Counts[c] != capacity {
			t.Fatalf("cluster %d count = %d, want capacity %d", c, a.Counts[c], capacity)
		}
		for i, id := range a.Lights(c) {
			if id != uint32(i) {
				t.Fatalf("cluster %d kept light %d at slot %d, want the lowest indices", c, id, i)
			}
		}
	}
	if touched == 0 {
		t.Fatal("stress lights should touch at least one tile")
	}
	if len(a.Truncated()) != touched {
		t.Fatalf("Truncated() reports %d clusters, %d overflowed", len(a.Truncated()), touched)
	}
}

func TestAssignMaxLights(t *testing.T) {
	set, err := light.NewLightSet(light.WithLightCount(light.DefaultMaxLights), light.WithSeed(11))
	if err != nil {
		t.Fatal(err)
	}
	set.Simulate(nil, 3)

	cam := testCamera{
		view: common.LookAt(mgl32.Vec3{0, 8, 20}, mgl32.Vec3{0, 2, 0}, mgl32.Vec3{0, 1, 0}),
		proj: common.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 200),
		near: 0.1,
		far:  200,
	}
	g := gridFor(t, 640, 360, 16, 1)
	a := Assign(newTestPool(t), g, cam, set.Lights(), DefaultConfig().Capacity)
	checkWellFormed(t, a, light.DefaultMaxLights)
}

func TestAssignPoolMatchesSerial(t *testing.T) {
	set, _ := light.NewLightSet(light.WithLightCount(800), light.WithSeed(2))
	cam := testCamera{
		view: common.LookAt(mgl32.Vec3{0, 5, 18}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}),
		proj: common.Perspective(mgl32.DegToRad(70), 4.0/3.0, 0.1, 100),
		near: 0.1,
		far:  100,
	}
	g := gridFor(t, 400, 300, 32, 4)
	serial := Assign(nil, g, cam, set.Lights(), 64)
	parallel := Assign(newTestPool(t), g, cam, set.Lights(), 64)
	if !slices.Equal(serial.Counts, parallel.Counts) || !slices.Equal(serial.Indices, parallel.Indices) {
		t.Fatal("pooled assignment differs from serial assignment")
	}
}

// Every light that a brute-force ray cast through some pixel center of a tile hits inside the
// cluster's depth range must be listed for that cluster.
func TestAssignHasNoFalseNegatives(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	pool := newTestPool(t)

	for iter := 0; iter < 12; iter++ {
		w, h := 48+rng.IntN(112), 48+rng.IntN(112)
		tile := uint32(8 + rng.IntN(40))
		slicesN := uint32(1)
		if iter%2 == 1 {
			slicesN = uint32(2 + rng.IntN(6))
		}
		g := gridFor(t, w, h, tile, slicesN)

		eye := mgl32.Vec3{rng.Float32()*10 - 5, 1 + rng.Float32()*6, 8 + rng.Float32()*10}
		cam := testCamera{
			view: common.LookAt(eye, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}),
			proj: common.Perspective(mgl32.DegToRad(45+rng.Float32()*40), float32(w)/float32(h), 0.5, 60),
			near: 0.5,
			far:  60,
		}

		lights := make([]light.Light, 30)
		for i := range lights {
			lights[i] = light.Light{
				Position: mgl32.Vec3{rng.Float32()*24 - 12, rng.Float32() * 8, rng.Float32()*24 - 12},
				Radius:   0.2 + rng.Float32()*5,
			}
		}

		a := Assign(pool, g, cam, lights, MaxCapacity)
		checkWellFormed(t, a, len(lights))
		if len(a.Truncated()) != 0 {
			t.Fatal("capacity should be large enough to avoid truncation")
		}

		p00, p11 := cam.proj[0], cam.proj[5]
		for li, l := range lights {
			center := common.TransformPoint(cam.view, l.Position)
			for py := 0; py < h; py++ {
				for px := 0; px < w; px++ {
					ndcX := (float32(px)+0.5)/float32(w)*2 - 1
					ndcY := 1 - (float32(py)+0.5)/float32(h)*2
					dir := mgl32.Vec3{ndcX / p00, ndcY / p11, -1}
					s0, s1, hit := rayHitsSphere(dir, center, l.Radius, cam.near, cam.far)
					if !hit {
						continue
					}
					tx, ty := g.TileOf(float32(px)+0.5, float32(py)+0.5)
					for k := uint32(0); k < g.Slices; k++ {
						lo, hi := g.SliceRange(k, cam.near, cam.far)
						const eps = 1e-3
						if s1 <= lo+eps || s0 >= hi-eps {
							continue
						}
						c := g.ClusterIndex(tx, ty, k)
						if !slices.Contains(a.Lights(c), uint32(li)) {
							t.Fatalf("iter %d: light %d hits pixel (%d,%d) at depth [%v,%v] but is missing from cluster (%d,%d,%d)",
								iter, li, px, py, s0, s1, tx, ty, k)
						}
					}
				}
			}
		}
	}
}

func TestMarshalLayoutMatchesStride(t *testing.T) {
	g := gridFor(t, 256, 256, 128, 1)
	a := NewAssignment(g, 4)
	c := g.ClusterIndex(1, 1, 0)
	a.Counts[c] = 2
	a.Indices[c*4] = 7
	a.Indices[c*4+1] = 9

	buf := a.Marshal()
	word := func(i int) uint32 { return binary.LittleEndian.Uint32(buf[i*4:]) }
	base := int(c) * 5
	if word(base) != 2 || word(base+1) != 7 || word(base+2) != 9 || word(base+3) != 0 {
		t.Fatalf("cluster %d words = %d %d %d %d", c, word(base), word(base+1), word(base+2), word(base+3))
	}
}
