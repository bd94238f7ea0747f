package octree

import (
	"fmt"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/svon-go/math32"
	"github.com/stretchr/testify/require"
)

type testBox struct {
	min math32.Vector3
	max math32.Vector3
}

// boxOracle reports a query box as occupied when it overlaps one of the
// boxes with a positive volume. Touching faces do not count.
func boxOracle(boxes ...testBox) OccupancyOracle {
	return OracleFunc(func(center math32.Vector3, halfExtent float32, _ QueryParams) (bool, error) {
		for _, b := range boxes {
			if center.X-halfExtent < b.max.X && center.X+halfExtent > b.min.X &&
				center.Y-halfExtent < b.max.Y && center.Y+halfExtent > b.min.Y &&
				center.Z-halfExtent < b.max.Z && center.Z+halfExtent > b.min.Z {
				return true, nil
			}
		}
		return false, nil
	})
}

func constantOracle(occupied bool) OccupancyOracle {
	return OracleFunc(func(math32.Vector3, float32, QueryParams) (bool, error) {
		return occupied, nil
	})
}

func cube(min, max float32) testBox {
	return testBox{min: math32.Splat(min), max: math32.Splat(max)}
}

func buildTestTree(t *testing.T, voxelPower uint8, extent float32, oracle OccupancyOracle) *Octree {
	t.Helper()

	tree := NewOctree(math32.Vector3{}, math32.Splat(extent), voxelPower)
	r := NewRasterizer(tree, oracle, 0)
	require.NoError(t, r.FirstPass())
	require.NoError(t, r.RasterizeLayers())
	r.BuildNeighbourLinks(2)
	require.NoError(t, tree.Validate())
	return tree
}

func TestRasterizeSingleCorner(t *testing.T) {
	tree := buildTestTree(t, 1, 4, boxOracle(cube(-4, -3)))

	require.Len(t, tree.Layers, 2)
	require.Len(t, tree.Layers[0], 8)
	require.Len(t, tree.Layers[1], 1)
	require.Len(t, tree.LeafNodes, 8)

	for i, node := range tree.Layers[0] {
		require.Equal(t, MortonCode(i), node.Code)
		require.Equal(t, NewLink(1, 0, 0), node.Parent)
		if i == 0 {
			require.Equal(t, NewLink(0, 0, 0), node.FirstChild)
			continue
		}
		require.False(t, node.HasChildren())
		require.True(t, tree.LeafNodes[i].IsCompletelyFree())
	}

	leaf := tree.GetLeafNode(0)
	require.Equal(t, 1, leaf.BlockedCount())
	require.True(t, leaf.GetNode(0))

	root := tree.Layers[1][0]
	require.Equal(t, NewLink(0, 0, 0), root.FirstChild)
	require.False(t, root.Parent.IsValid())
}

func TestRasterizeEmptyVolume(t *testing.T) {
	tree := buildTestTree(t, 3, 16, constantOracle(false))

	for _, layer := range tree.Layers {
		require.Empty(t, layer)
	}
	require.Empty(t, tree.LeafNodes)
	require.Zero(t, tree.TotalNodes())

	_, ok := tree.GetLinkForPosition(math32.Vector3{})
	require.False(t, ok)
}

func TestRasterizeFullVolume(t *testing.T) {
	tree := buildTestTree(t, 1, 4, constantOracle(true))

	require.Len(t, tree.Layers[0], 8)
	for i, node := range tree.Layers[0] {
		require.True(t, node.HasChildren())
		require.True(t, tree.LeafNodes[i].IsCompletelyBlocked())
	}
}

func TestRasterizeDenseTerminalLayers(t *testing.T) {
	tree := buildTestTree(t, 2, 8, boxOracle(cube(-8, -7)))

	require.Len(t, tree.Layers[0], 8)
	require.Len(t, tree.Layers[1], 8)
	require.Len(t, tree.Layers[2], 1)

	require.True(t, tree.Layers[1][0].HasChildren())
	for _, node := range tree.Layers[1][1:] {
		require.False(t, node.HasChildren())
		require.Equal(t, NewLink(2, 0, 0), node.Parent)
	}
}

func TestRasterizeSparseLayers(t *testing.T) {
	tree := buildTestTree(t, 3, 16, boxOracle(cube(-16, -15), cube(15, 16)))

	// Two opposite corners keep layer 1 sparse: only the children of the two
	// occupied layer 2 cells are allocated.
	require.Len(t, tree.Layers[0], 16)
	require.Len(t, tree.Layers[1], 16)
	require.Len(t, tree.Layers[2], 8)
	require.Len(t, tree.Layers[3], 1)

	require.Equal(t, MortonCode(0), tree.Layers[0][0].Code)
	require.Equal(t, MortonCode(511), tree.Layers[0][15].Code)
}

func TestRasterizeDeterministic(t *testing.T) {
	oracle := boxOracle(
		testBox{min: math32.Vector3{X: -3, Y: -9, Z: 2}, max: math32.Vector3{X: 5, Y: -6, Z: 4}},
		cube(7, 9),
	)

	a := buildTestTree(t, 3, 16, oracle)
	b := buildTestTree(t, 3, 16, oracle)
	require.Equal(t, a, b)
}

func TestRasterizeQueryTags(t *testing.T) {
	queries := map[string]int{}
	oracle := boxOracle(cube(-4, -3))
	tree := NewOctree(math32.Vector3{}, math32.Splat(4), 1)

	r := NewRasterizer(tree, OracleFunc(func(center math32.Vector3, halfExtent float32, params QueryParams) (bool, error) {
		require.Equal(t, uint8(3), params.Channel)
		queries[params.Tag]++
		return oracle.IsOccupied(center, halfExtent, params)
	}), 3)

	require.NoError(t, r.FirstPass())
	require.NoError(t, r.RasterizeLayers())
	require.Equal(t, 1, r.TerminalDepth())

	require.Equal(t, map[string]int{
		TagFirstPass:     1,
		TagRasterize:     8,
		TagLeafRasterize: 64,
	}, queries)
}

func TestRasterizeOracleError(t *testing.T) {
	for _, limit := range []int{0, 3, 20} {
		t.Run(fmt.Sprintf("after %d queries", limit), func(t *testing.T) {
			calls := 0

			tree := NewOctree(math32.Vector3{}, math32.Splat(4), 1)
			r := NewRasterizer(tree, OracleFunc(func(math32.Vector3, float32, QueryParams) (bool, error) {
				calls++
				if calls > limit {
					return false, errors.New("physics scene unavailable")
				}
				return true, nil
			}), 0)

			err := r.FirstPass()
			if err == nil {
				err = r.RasterizeLayers()
			}
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeOracle))
		})
	}
}

func TestFirstPassRejectsVoxelPower(t *testing.T) {
	tree := NewOctree(math32.Vector3{}, math32.Splat(4), 0)
	err := NewRasterizer(tree, constantOracle(true), 0).FirstPass()
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeConfig))
}

func TestValidateDetectsBrokenTree(t *testing.T) {
	tree := buildTestTree(t, 1, 4, boxOracle(cube(-4, -3)))

	broken := *tree
	broken.LeafNodes = tree.LeafNodes[:4]
	require.True(t, errors.IsType(broken.Validate(), ErrTypeInvariant))

	broken = *tree
	broken.Layers = []Layer{append(Layer{}, tree.Layers[0]...), tree.Layers[1]}
	broken.Layers[0][3].Code = 1
	require.True(t, errors.IsType(broken.Validate(), ErrTypeInvariant))

	broken = *tree
	broken.Layers = []Layer{append(Layer{}, tree.Layers[0]...), tree.Layers[1]}
	broken.Layers[0][5].Neighbours[DirPosX] = NewLink(1, 9, 0)
	require.True(t, errors.IsType(broken.Validate(), ErrTypeInvariant))
}
