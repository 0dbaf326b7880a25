package cluster

import (
	"encoding/binary"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cluster/common"
	"github.com/Carmen-Shannon/oxy-cluster/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the view the lights are clustered against. camera.Camera satisfies it.
type Camera interface {
	View() mgl32.Mat4
	Projection() mgl32.Mat4
	Near() float32
	Far() float32
}

// Assignment is the host-side cluster assignment. Its Marshal output has exactly the layout
// the light_cluster compute pass writes, so shading passes cannot tell the two apart.
type Assignment struct {
	Grid     Grid
	Capacity uint32

	// Counts holds the stored light count of every cluster, never above Capacity.
	Counts []uint32

	// Indices holds Capacity slots per cluster; cluster c owns
	// Indices[c*Capacity : c*Capacity+Counts[c]] in ascending light index order.
	Indices []uint32

	truncated []uint32
}

// NewAssignment allocates an empty assignment for grid.
//
// Parameters:
//   - grid: the tile grid
//   - capacity: the per-cluster light capacity
//
// Returns:
//   - *Assignment: an assignment with every count zero
func NewAssignment(grid Grid, capacity uint32) *Assignment {
	n := grid.ClusterCount()
	return &Assignment{
		Grid:     grid,
		Capacity: capacity,
		Counts:   make([]uint32, n),
		Indices:  make([]uint32, n*capacity),
	}
}

// Lights returns the light indices stored for cluster c.
//
// Parameters:
//   - c: the flattened cluster index
//
// Returns:
//   - []uint32: the indices, aliasing the assignment
func (a *Assignment) Lights(c uint32) []uint32 {
	start := c * a.Capacity
	return a.Indices[start : start+a.Counts[c]]
}

// Truncated returns the clusters whose true light count exceeded Capacity, ascending.
func (a *Assignment) Truncated() []uint32 {
	return a.truncated
}

// Marshal serializes the assignment in the cluster buffer layout: per cluster one count word
// followed by Capacity index words, unused slots zeroed.
//
// Returns:
//   - []byte: ClusterCount * (1 + Capacity) * 4 bytes
func (a *Assignment) Marshal() []byte {
	stride := int(1 + a.Capacity)
	buf := make([]byte, len(a.Counts)*stride*4)
	for c, count := range a.Counts {
		base := c * stride * 4
		binary.LittleEndian.PutUint32(buf[base:base+4], count)
		for i, idx := range a.Lights(uint32(c)) {
			off := base + (1+i)*4
			binary.LittleEndian.PutUint32(buf[off:off+4], idx)
		}
	}
	return buf
}

// lightFootprint is the tile-space extent of one light, precomputed once per Assign.
type lightFootprint struct {
	tx0, tx1 uint32
	ty0, ty1 uint32
	s0, s1   uint32
	visible  bool
}

// Assign clusters lights on the host. Footprints are computed once per light, then every tile
// row is filled by its own task, so no two tasks write the same cluster. Lights are appended
// in index order and a full cluster drops the remaining lights, which makes truncation
// deterministic. Truncation is reported through Truncated and a Warn log, never as an error.
//
// Parameters:
//   - pool: the worker pool to fan rows out on, or nil to run on the caller
//   - grid: the tile grid
//   - cam: the view the lights are projected with
//   - lights: the active lights, index i is light i
//   - capacity: the per-cluster light capacity
//
// Returns:
//   - *Assignment: the filled assignment
func Assign(pool worker.DynamicWorkerPool, grid Grid, cam Camera, lights []light.Light, capacity uint32) *Assignment {
	a := NewAssignment(grid, capacity)
	if len(lights) == 0 || grid.ClusterCount() == 0 {
		return a
	}

	view, proj := cam.View(), cam.Projection()
	near, far := cam.Near(), cam.Far()
	frustum := common.ExtractFrustum(proj.Mul4(view))

	footprints := make([]lightFootprint, len(lights))
	for i, l := range lights {
		if !frustum.IntersectsSphere(l.Position, l.Radius) {
			continue
		}
		fp, ok := ProjectSphere(common.TransformPoint(view, l.Position), l.Radius, proj, near, far, grid.Width, grid.Height)
		if !ok {
			continue
		}
		tx0, tx1, okX := tileRange(fp.MinX, fp.MaxX, grid.Width, grid.TileWidth, grid.TilesX)
		ty0, ty1, okY := tileRange(fp.MinY, fp.MaxY, grid.Height, grid.TileHeight, grid.TilesY)
		if !okX || !okY {
			continue
		}
		footprints[i] = lightFootprint{
			tx0:     tx0,
			tx1:     tx1,
			ty0:     ty0,
			ty1:     ty1,
			s0:      grid.SliceOf(fp.MinDepth, near, far),
			s1:      grid.SliceOf(fp.MaxDepth, near, far),
			visible: true,
		}
	}

	overflow := make([]bool, grid.ClusterCount())
	fillRow := func(ty uint32) {
		for i, f := range footprints {
			if !f.visible || ty < f.ty0 || ty > f.ty1 {
				continue
			}
			for s := f.s0; s <= f.s1; s++ {
				for tx := f.tx0; tx <= f.tx1; tx++ {
					c := grid.ClusterIndex(tx, ty, s)
					if a.Counts[c] >= capacity {
						overflow[c] = true
						continue
					}
					a.Indices[c*capacity+a.Counts[c]] = uint32(i)
					a.Counts[c]++
				}
			}
		}
	}

	if pool == nil {
		for ty := uint32(0); ty < grid.TilesY; ty++ {
			fillRow(ty)
		}
	} else {
		var wg sync.WaitGroup
		for ty := uint32(0); ty < grid.TilesY; ty++ {
			wg.Add(1)
			row := ty
			pool.SubmitTask(worker.Task{
				ID: int(row),
				Do: func() (any, error) {
					defer wg.Done()
					fillRow(row)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	for c, o := range overflow {
		if o {
			a.truncated = append(a.truncated, uint32(c))
		}
	}
	if len(a.truncated) > 0 {
		common.Logger().Warn("cluster light lists truncated", "clusters", len(a.truncated), "capacity", capacity)
	}
	return a
}
