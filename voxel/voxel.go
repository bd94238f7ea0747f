package voxel

import (
	"math"
	"unsafe"

	"github.com/o0olele/svon-go/geometry"
	"github.com/o0olele/svon-go/math32"
	"github.com/o0olele/svon-go/octree"
)

// Voxel is the state of one grid cell.
type Voxel uint8

const (
	VoxelEmpty Voxel = iota
	VoxelSolid
)

// Grid is a dense voxel grid usable as an occupancy oracle. Cell (0,0,0)
// starts at Origin.
type Grid struct {
	Size     math32.Vector3i `json:"size"`      // cells per axis
	CellSize float32         `json:"cell_size"` // edge length of a cell in world units
	Origin   math32.Vector3  `json:"origin"`    // world position of the grid corner
	Voxels   []Voxel         `json:"voxels"`    // x fastest, then y, then z
}

// NewGrid creates an empty grid.
func NewGrid(size math32.Vector3i, cellSize float32, origin math32.Vector3) *Grid {
	return &Grid{
		Size:     size,
		CellSize: cellSize,
		Origin:   origin,
		Voxels:   make([]Voxel, int(size.X)*int(size.Y)*int(size.Z)),
	}
}

// GetIndex converts 3D coordinates to 1D array index
func (g *Grid) GetIndex(coord math32.Vector3i) int {
	if !g.IsValidCoordinate(coord) {
		return -1
	}
	return int(coord.Z)*int(g.Size.X)*int(g.Size.Y) + int(coord.Y)*int(g.Size.X) + int(coord.X)
}

// IsValidCoordinate checks if the coordinate is within grid bounds
func (g *Grid) IsValidCoordinate(coord math32.Vector3i) bool {
	return coord.X >= 0 && coord.X < g.Size.X &&
		coord.Y >= 0 && coord.Y < g.Size.Y &&
		coord.Z >= 0 && coord.Z < g.Size.Z
}

// GetVoxel returns the voxel at the given coordinate. Cells outside the grid
// are empty.
func (g *Grid) GetVoxel(coord math32.Vector3i) Voxel {
	index := g.GetIndex(coord)
	if index == -1 {
		return VoxelEmpty
	}
	return g.Voxels[index]
}

// SetVoxel sets the voxel at the given coordinate
func (g *Grid) SetVoxel(coord math32.Vector3i, voxel Voxel) bool {
	index := g.GetIndex(coord)
	if index == -1 {
		return false
	}
	g.Voxels[index] = voxel
	return true
}

// WorldToVoxel returns the coordinate of the cell containing a world
// position.
func (g *Grid) WorldToVoxel(worldPos math32.Vector3) math32.Vector3i {
	return worldPos.Sub(g.Origin).Floor(g.CellSize)
}

// VoxelBounds returns the world bounds of a cell.
func (g *Grid) VoxelBounds(coord math32.Vector3i) geometry.AABB {
	min := g.Origin.Add(coord.Vector3().Scale(g.CellSize))
	return geometry.AABB{
		Min: min,
		Max: min.Add(math32.Splat(g.CellSize)),
	}
}

// Bounds returns the world bounds of the grid.
func (g *Grid) Bounds() geometry.AABB {
	return geometry.AABB{
		Min: g.Origin,
		Max: g.Origin.Add(g.Size.Vector3().Scale(g.CellSize)),
	}
}

// Voxelize marks every cell intersected by one of the shapes as solid and
// returns the number of cells it set.
func (g *Grid) Voxelize(shapes ...geometry.Geometry) int {
	count := 0
	for _, shape := range shapes {
		bounds := shape.GetBounds()
		low, high, ok := g.cellRange(bounds, false)
		if !ok {
			continue
		}

		g.forEachCell(low, high, func(coord math32.Vector3i) bool {
			if shape.IntersectsAABB(g.VoxelBounds(coord)) && g.GetVoxel(coord) != VoxelSolid {
				g.SetVoxel(coord, VoxelSolid)
				count++
			}
			return true
		})
	}
	return count
}

// IsOccupied reports whether a solid cell shares a volume with the query
// box. The grid has a single channel.
func (g *Grid) IsOccupied(center math32.Vector3, halfExtent float32, _ octree.QueryParams) (bool, error) {
	low, high, ok := g.cellRange(geometry.NewAABB(center, halfExtent), true)
	if !ok {
		return false, nil
	}

	occupied := false
	g.forEachCell(low, high, func(coord math32.Vector3i) bool {
		occupied = g.GetVoxel(coord) == VoxelSolid
		return !occupied
	})
	return occupied, nil
}

// cellRange returns the inclusive range of cells touched by a box, clamped
// to the grid. With strict set, cells only touching a face of the box are
// left out.
func (g *Grid) cellRange(box geometry.AABB, strict bool) (math32.Vector3i, math32.Vector3i, bool) {
	low := box.Min.Sub(g.Origin).Floor(g.CellSize)

	local := box.Max.Sub(g.Origin)
	high := local.Floor(g.CellSize)
	if strict {
		high = math32.Vector3i{
			X: int32(math.Ceil(float64(local.X/g.CellSize))) - 1,
			Y: int32(math.Ceil(float64(local.Y/g.CellSize))) - 1,
			Z: int32(math.Ceil(float64(local.Z/g.CellSize))) - 1,
		}
	}

	low = low.Max(math32.Vector3i{})
	high = high.Min(g.Size.Sub(math32.Vector3i{X: 1, Y: 1, Z: 1}))
	return low, high, low.X <= high.X && low.Y <= high.Y && low.Z <= high.Z
}

func (g *Grid) forEachCell(low, high math32.Vector3i, fn func(coord math32.Vector3i) bool) {
	for z := low.Z; z <= high.Z; z++ {
		for y := low.Y; y <= high.Y; y++ {
			for x := low.X; x <= high.X; x++ {
				if !fn(math32.Vector3i{X: x, Y: y, Z: z}) {
					return
				}
			}
		}
	}
}

// SolidCount returns the number of solid cells.
func (g *Grid) SolidCount() int {
	count := 0
	for _, voxel := range g.Voxels {
		if voxel == VoxelSolid {
			count++
		}
	}
	return count
}

// Clear resets all voxels to empty
func (g *Grid) Clear() {
	for i := range g.Voxels {
		g.Voxels[i] = VoxelEmpty
	}
}

// GetMemoryUsage returns approximate memory usage in bytes
func (g *Grid) GetMemoryUsage() int {
	return len(g.Voxels) * int(unsafe.Sizeof(Voxel(0)))
}
