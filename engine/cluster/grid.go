package cluster

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-cluster/common"
)

// Grid is the tile mapping shared by the clustering pass and both shading passes. Pixel
// coordinates have their origin at the top-left corner of the viewport with y pointing down,
// matching @builtin(position) in a fragment shader.
//
// The WGSL twin lives in assets/tile_mapping.wgsl.
type Grid struct {
	Width      uint32
	Height     uint32
	TileWidth  uint32
	TileHeight uint32
	TilesX     uint32
	TilesY     uint32
	Slices     uint32
}

// NewGrid derives the tile grid covering a width x height viewport.
//
// Parameters:
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//   - cfg: the clustering configuration supplying tile extent and depth slices
//
// Returns:
//   - Grid: a grid with TilesX = ceil(width/TileWidth) and TilesY = ceil(height/TileHeight)
//   - error: ErrInvalidViewport, or the wrapped config error
func NewGrid(width, height int, cfg Config) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("new grid: %w: %dx%d", ErrInvalidViewport, width, height)
	}
	if cfg.TileWidth == 0 || cfg.TileHeight == 0 {
		return Grid{}, fmt.Errorf("new grid: %w: %dx%d", ErrInvalidTileExtent, cfg.TileWidth, cfg.TileHeight)
	}
	slices := max(cfg.DepthSlices, 1)
	return Grid{
		Width:      uint32(width),
		Height:     uint32(height),
		TileWidth:  cfg.TileWidth,
		TileHeight: cfg.TileHeight,
		TilesX:     common.CeilDiv(uint32(width), cfg.TileWidth),
		TilesY:     common.CeilDiv(uint32(height), cfg.TileHeight),
		Slices:     slices,
	}, nil
}

// TileCount returns TilesX * TilesY.
func (g Grid) TileCount() uint32 {
	return g.TilesX * g.TilesY
}

// ClusterCount returns TilesX * TilesY * Slices.
func (g Grid) ClusterCount() uint32 {
	return g.TilesX * g.TilesY * g.Slices
}

// TileOf maps a pixel position to its tile. Positions outside the viewport are clamped to
// the border tiles.
//
// Parameters:
//   - px: the x pixel coordinate, pixel centers sit at +0.5
//   - py: the y pixel coordinate, growing downwards
//
// Returns:
//   - uint32: the tile column
//   - uint32: the tile row
func (g Grid) TileOf(px, py float32) (uint32, uint32) {
	return tileCoord(px, g.TileWidth, g.TilesX), tileCoord(py, g.TileHeight, g.TilesY)
}

// TileRect returns the half-open pixel rectangle [x0, x1) x [y0, y1) covered by a tile. The
// last row and column are clipped to the viewport, so the rectangles of all tiles partition
// the viewport exactly.
//
// Parameters:
//   - tx: the tile column
//   - ty: the tile row
//
// Returns:
//   - x0, y0: the inclusive top-left pixel
//   - x1, y1: the exclusive bottom-right pixel
func (g Grid) TileRect(tx, ty uint32) (x0, y0, x1, y1 uint32) {
	x0 = min(tx*g.TileWidth, g.Width)
	y0 = min(ty*g.TileHeight, g.Height)
	x1 = min(x0+g.TileWidth, g.Width)
	y1 = min(y0+g.TileHeight, g.Height)
	return
}

// SliceOf maps a positive view depth to its logarithmic depth slice:
//
//	slice = floor(log(depth/near) / log(far/near) * Slices)
//
// clamped to [0, Slices-1]. With a single slice every depth maps to 0.
//
// Parameters:
//   - depth: the distance in front of the camera along the view direction
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - uint32: the slice index
func (g Grid) SliceOf(depth, near, far float32) uint32 {
	if g.Slices <= 1 || depth <= near || far <= near {
		return 0
	}
	s := math.Log(float64(depth/near)) / math.Log(float64(far/near)) * float64(g.Slices)
	if s < 0 {
		return 0
	}
	return min(uint32(s), g.Slices-1)
}

// SliceRange returns the depth interval covered by slice k, the inverse of SliceOf.
//
// Parameters:
//   - k: the slice index
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - float32: the near depth of the slice
//   - float32: the far depth of the slice
func (g Grid) SliceRange(k uint32, near, far float32) (float32, float32) {
	if g.Slices <= 1 {
		return near, far
	}
	ratio := float64(far / near)
	lo := float64(near) * math.Pow(ratio, float64(k)/float64(g.Slices))
	hi := float64(near) * math.Pow(ratio, float64(k+1)/float64(g.Slices))
	if k == 0 {
		lo = float64(near)
	}
	if k+1 >= g.Slices {
		hi = float64(far)
	}
	return float32(lo), float32(hi)
}

// ClusterIndex flattens a tile coordinate and slice into a cluster index:
//
//	(slice * TilesY + ty) * TilesX + tx
//
// Parameters:
//   - tx: the tile column
//   - ty: the tile row
//   - slice: the depth slice
//
// Returns:
//   - uint32: the flattened index
func (g Grid) ClusterIndex(tx, ty, slice uint32) uint32 {
	return (slice*g.TilesY+ty)*g.TilesX + tx
}

// tileRange returns the inclusive range of tiles along one axis touched by the continuous
// pixel interval [lo, hi], or ok = false when the interval misses the viewport.
func tileRange(lo, hi float32, extent, tileSize, tiles uint32) (first, last uint32, ok bool) {
	if hi < 0 || lo >= float32(extent) || hi < lo {
		return 0, 0, false
	}
	return tileCoord(lo, tileSize, tiles), tileCoord(hi, tileSize, tiles), true
}

func tileCoord(p float32, tileSize, tiles uint32) uint32 {
	if p <= 0 || tiles == 0 {
		return 0
	}
	f := p / float32(tileSize)
	if f >= float32(tiles) {
		return tiles - 1
	}
	return uint32(f)
}
