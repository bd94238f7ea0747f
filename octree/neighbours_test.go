package octree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNeighbourLinksSameLayer(t *testing.T) {
	tree := buildTestTree(t, 1, 4, boxOracle(cube(-4, -3)))

	node := tree.Layers[0][0]
	require.Equal(t, NewLink(0, 1, 0), node.Neighbours[DirPosX])
	require.Equal(t, InvalidLink, node.Neighbours[DirNegX])
	require.Equal(t, NewLink(0, 2, 0), node.Neighbours[DirPosY])
	require.Equal(t, InvalidLink, node.Neighbours[DirNegY])
	require.Equal(t, NewLink(0, 4, 0), node.Neighbours[DirPosZ])
	require.Equal(t, InvalidLink, node.Neighbours[DirNegZ])

	require.Equal(t, NewLink(0, 0, 0), tree.Layers[0][1].Neighbours[DirNegX])
	require.Equal(t, NewLink(0, 6, 0), tree.Layers[0][7].Neighbours[DirNegX])

	for _, neighbour := range tree.Layers[1][0].Neighbours {
		require.Equal(t, InvalidLink, neighbour)
	}
}

func TestNeighbourLinksSkipSolidLeaves(t *testing.T) {
	tree := buildTestTree(t, 1, 4, constantOracle(true))

	for i := range tree.Layers[0] {
		for d := Direction(0); d < directionCount; d++ {
			link, ok := tree.FindLinkInDirection(0, int32(i), d)
			require.True(t, ok)
			require.Equal(t, InvalidLink, link)
			require.Equal(t, InvalidLink, tree.Layers[0][i].Neighbours[d])
		}
	}
}

func TestNeighbourLinksClimbToParent(t *testing.T) {
	tree := buildTestTree(t, 2, 8, boxOracle(cube(-8, -7)))

	// Layer 0 only holds the children of one layer 1 cell, so stepping out
	// of that cell has to resolve one layer up.
	index, ok := tree.GetIndexForCode(0, EncodeMorton3D(1, 0, 0))
	require.True(t, ok)

	_, ok = tree.FindLinkInDirection(0, index, DirPosX)
	require.False(t, ok)
	require.Equal(t, NewLink(1, 1, 0), tree.Layers[0][index].Neighbours[DirPosX])
	require.Equal(t, NewLink(0, 0, 0), tree.Layers[0][index].Neighbours[DirNegX])
	require.Equal(t, NewLink(0, 3, 0), tree.Layers[0][index].Neighbours[DirPosY])
	require.Equal(t, NewLink(1, 2, 0), tree.Layers[0][2].Neighbours[DirPosY])
	require.Equal(t, NewLink(1, 4, 0), tree.Layers[0][4].Neighbours[DirPosZ])

	link, ok := tree.FindLinkInDirection(1, 1, DirPosX)
	require.True(t, ok)
	require.Equal(t, InvalidLink, link)
}

func TestNeighbourLinksSequentialAndPooled(t *testing.T) {
	oracle := boxOracle(cube(-16, -15), cube(3, 6))

	sequential := buildTestTree(t, 3, 16, oracle)
	pooled := buildTestTree(t, 3, 16, oracle)
	NewRasterizer(sequential, oracle, 0).BuildNeighbourLinks(1)
	NewRasterizer(pooled, oracle, 0).BuildNeighbourLinks(8)

	require.Equal(t, sequential, pooled)
}
