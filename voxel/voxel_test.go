package voxel

import (
	"testing"

	"github.com/o0olele/svon-go/geometry"
	"github.com/o0olele/svon-go/math32"
	"github.com/o0olele/svon-go/octree"
	"github.com/stretchr/testify/require"
)

func TestGridCoordinates(t *testing.T) {
	grid := NewGrid(math32.Vector3i{X: 4, Y: 3, Z: 2}, 0.5, math32.Vector3{X: -1})

	require.Len(t, grid.Voxels, 24)
	require.Equal(t, 0, grid.GetIndex(math32.Vector3i{}))
	require.Equal(t, 23, grid.GetIndex(math32.Vector3i{X: 3, Y: 2, Z: 1}))
	require.Equal(t, -1, grid.GetIndex(math32.Vector3i{X: 4}))

	require.Equal(t, math32.Vector3i{X: 1, Y: 1}, grid.WorldToVoxel(math32.Vector3{X: -0.25, Y: 0.75, Z: 0.1}))
	require.Equal(t, math32.Vector3i{X: -1}, grid.WorldToVoxel(math32.Vector3{X: -1.25}))

	bounds := grid.Bounds()
	require.Equal(t, math32.Vector3{X: 1, Y: 1.5, Z: 1}, bounds.Max)

	require.False(t, grid.SetVoxel(math32.Vector3i{Z: 2}, VoxelSolid))
	require.Equal(t, VoxelEmpty, grid.GetVoxel(math32.Vector3i{Z: 2}))
}

func TestGridIsOccupied(t *testing.T) {
	grid := NewGrid(math32.Vector3i{X: 4, Y: 4, Z: 4}, 1, math32.Vector3{})
	grid.SetVoxel(math32.Vector3i{X: 1, Y: 2, Z: 3}, VoxelSolid)

	tests := []struct {
		name       string
		center     math32.Vector3
		halfExtent float32
		occupied   bool
	}{
		{name: "inside cell", center: math32.Vector3{X: 1.5, Y: 2.5, Z: 3.5}, halfExtent: 0.25, occupied: true},
		{name: "covering grid", center: math32.Splat(2), halfExtent: 2, occupied: true},
		{name: "touching face", center: math32.Vector3{X: 2.5, Y: 2.5, Z: 3.5}, halfExtent: 0.5, occupied: false},
		{name: "other cell", center: math32.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, halfExtent: 0.5, occupied: false},
		{name: "outside grid", center: math32.Splat(10), halfExtent: 1, occupied: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			occupied, err := grid.IsOccupied(test.center, test.halfExtent, octree.QueryParams{})
			require.NoError(t, err)
			require.Equal(t, test.occupied, occupied)
		})
	}
}

func TestGridVoxelize(t *testing.T) {
	grid := NewGrid(math32.Vector3i{X: 8, Y: 8, Z: 8}, 1, math32.Splat(-4))

	count := grid.Voxelize(
		&geometry.Box{Center: math32.Vector3{X: -3, Y: -3, Z: -3}, Size: math32.Splat(2)},
		&geometry.Triangle{
			A: math32.Vector3{X: 0.5, Y: 0.5, Z: 0.5},
			B: math32.Vector3{X: 0.75, Y: 0.5, Z: 0.5},
			C: math32.Vector3{X: 0.5, Y: 0.75, Z: 0.5},
		},
	)
	require.Equal(t, 9, count)
	require.Equal(t, 9, grid.SolidCount())
	require.Equal(t, VoxelSolid, grid.GetVoxel(math32.Vector3i{}))
	require.Equal(t, VoxelSolid, grid.GetVoxel(math32.Vector3i{X: 4, Y: 4, Z: 4}))

	require.Zero(t, grid.Voxelize(&geometry.Box{Center: math32.Splat(-3.5), Size: math32.Splat(1)}))

	grid.Clear()
	require.Zero(t, grid.SolidCount())
}

func TestGridBuildsOctree(t *testing.T) {
	grid := NewGrid(math32.Vector3i{X: 8, Y: 8, Z: 8}, 1, math32.Splat(-4))
	grid.SetVoxel(math32.Vector3i{}, VoxelSolid)

	tree := octree.NewOctree(math32.Vector3{}, math32.Splat(4), 1)
	r := octree.NewRasterizer(tree, grid, 0)
	require.NoError(t, r.FirstPass())
	require.NoError(t, r.RasterizeLayers())
	r.BuildNeighbourLinks(1)
	require.NoError(t, tree.Validate())

	leaf := tree.GetLeafNode(0)
	require.Equal(t, 1, leaf.BlockedCount())
	require.True(t, leaf.GetNode(0))
}
