package octree

import (
	"sort"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/svon-go/math32"
)

// neighbourChunkSize is the number of nodes a single neighbour linking task
// resolves.
const neighbourChunkSize = 4096

type codeSet map[MortonCode]struct{}

func (s codeSet) add(code MortonCode) {
	s[code] = struct{}{}
}

func (s codeSet) sorted() []MortonCode {
	codes := make([]MortonCode, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i] < codes[j]
	})
	return codes
}

// Rasterizer fills an empty Octree from an occupancy oracle. FirstPass,
// RasterizeLayers and BuildNeighbourLinks must run in that order.
type Rasterizer struct {
	tree    *Octree
	oracle  OccupancyOracle
	channel uint8

	// blocked[k] holds the occupied codes of layer k+1.
	blocked []codeSet
}

func NewRasterizer(tree *Octree, oracle OccupancyOracle, channel uint8) *Rasterizer {
	return &Rasterizer{
		tree:    tree,
		oracle:  oracle,
		channel: channel,
	}
}

// TerminalDepth returns the number of blocked sets derived by FirstPass.
// Layers at or above it are rasterized densely.
func (r *Rasterizer) TerminalDepth() int {
	return len(r.blocked)
}

func (r *Rasterizer) query(center math32.Vector3, halfExtent float32, tag string) (bool, error) {
	occupied, err := r.oracle.IsOccupied(center, halfExtent, QueryParams{
		Channel: r.channel,
		Tag:     tag,
	})
	if err != nil {
		return false, errors.New("occupancy query failed").
			WithType(ErrTypeOracle).
			WithTag("tag", tag).
			WithTag("center", center.String()).
			Wrap(err)
	}
	return occupied, nil
}

// FirstPass queries every layer 1 cell and derives the occupied code sets
// of the coarser layers from it.
func (r *Rasterizer) FirstPass() error {
	if r.tree.VoxelPower < 1 || int(r.tree.VoxelPower) >= MaxLayers {
		return errors.New("voxel power out of range").
			WithType(ErrTypeConfig).
			WithTag("voxel_power", r.tree.VoxelPower)
	}

	halfExtent := r.tree.GetVoxelSize(1) * 0.5
	occupied := codeSet{}
	for i, n := 0, r.tree.GetNodesInLayer(1); i < n; i++ {
		code := MortonCode(i)
		blocked, err := r.query(r.tree.GetNodePosition(1, code), halfExtent, TagFirstPass)
		if err != nil {
			return err
		}
		if blocked {
			occupied.add(code)
		}
	}

	r.blocked = []codeSet{occupied}
	for last := occupied; len(last) > 1; {
		parents := make(codeSet, len(last)/8+1)
		for code := range last {
			parents.add(code.Parent())
		}
		r.blocked = append(r.blocked, parents)
		last = parents
	}
	return nil
}

// RasterizeLayers builds layer 0 with its leaves, then every coarser layer
// up to the root.
func (r *Rasterizer) RasterizeLayers() error {
	if err := r.rasterizeLeafLayer(); err != nil {
		return err
	}

	for layer := 1; layer < r.tree.NumLayers(); layer++ {
		if len(r.tree.Layers[layer-1]) <= 1 {
			continue
		}
		if err := r.rasterizeLayer(uint8(layer)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rasterizer) rasterizeLeafLayer() error {
	parents := r.blocked[0].sorted()
	nodes := make(Layer, 0, len(parents)*8)
	leaves := make([]LeafNode, 0, len(parents)*8)
	voxelSize := r.tree.GetVoxelSize(0)

	for _, parent := range parents {
		for k := MortonCode(0); k < 8; k++ {
			code := parent.FirstChild() + k
			node := newNode(code)
			position := r.tree.GetNodePosition(0, code)

			blocked, err := r.query(position, voxelSize*0.5, TagRasterize)
			if err != nil {
				return err
			}

			var leaf LeafNode
			if blocked {
				if leaf, err = r.rasterizeLeafNode(position.Sub(math32.Splat(voxelSize * 0.5))); err != nil {
					return err
				}
				node.FirstChild = NewLink(0, int32(len(nodes)), 0)
			}

			nodes = append(nodes, node)
			leaves = append(leaves, leaf)
		}
	}

	r.tree.Layers[0] = nodes
	r.tree.LeafNodes = leaves
	return nil
}

func (r *Rasterizer) rasterizeLeafNode(origin math32.Vector3) (LeafNode, error) {
	leafSize := r.tree.GetVoxelSize(0) * 0.25

	var leaf LeafNode
	for i := uint8(0); i < leafVoxelCount; i++ {
		position := origin.
			Add(MortonCode(i).Coord().Vector3().Scale(leafSize)).
			Add(math32.Splat(leafSize * 0.5))

		blocked, err := r.query(position, leafSize*0.5, TagLeafRasterize)
		if err != nil {
			return 0, err
		}
		if blocked {
			leaf.SetNode(i)
		}
	}
	return leaf, nil
}

func (r *Rasterizer) candidates(layer uint8) []MortonCode {
	if int(layer) >= len(r.blocked) {
		codes := make([]MortonCode, r.tree.GetNodesInLayer(layer))
		for i := range codes {
			codes[i] = MortonCode(i)
		}
		return codes
	}

	parents := r.blocked[layer].sorted()
	codes := make([]MortonCode, 0, len(parents)*8)
	for _, parent := range parents {
		for k := MortonCode(0); k < 8; k++ {
			codes = append(codes, parent.FirstChild()+k)
		}
	}
	return codes
}

func (r *Rasterizer) rasterizeLayer(layer uint8) error {
	candidates := r.candidates(layer)
	nodes := make(Layer, 0, len(candidates))

	for _, code := range candidates {
		node := newNode(code)
		if first, ok := r.tree.GetIndexForCode(layer-1, code.FirstChild()); ok {
			if err := r.linkChildren(layer, int32(len(nodes)), code, first); err != nil {
				return err
			}
			node.FirstChild = NewLink(layer-1, first, 0)
		}
		nodes = append(nodes, node)
	}

	r.tree.Layers[layer] = nodes
	return nil
}

func (r *Rasterizer) linkChildren(layer uint8, index int32, code MortonCode, first int32) error {
	children := r.tree.Layers[layer-1]
	if int(first)+8 > len(children) {
		return errors.New("children run past the end of their layer").
			WithType(ErrTypeInvariant).
			WithTag("layer", layer).
			WithTag("code", code)
	}

	for k := int32(0); k < 8; k++ {
		child := &children[first+k]
		if child.Code != code.FirstChild()+MortonCode(k) {
			return errors.New("children are not contiguous").
				WithType(ErrTypeInvariant).
				WithTag("layer", layer).
				WithTag("code", code).
				WithTag("child_code", child.Code)
		}
		child.Parent = NewLink(layer, index, 0)
	}
	return nil
}

// BuildNeighbourLinks resolves the six neighbour links of every node below
// the root. Each layer is split into chunks resolved on a pool of workers.
// Resolution only reads codes, parents and children, so nodes of one layer
// never depend on each other's neighbours.
func (r *Rasterizer) BuildNeighbourLinks(workers int) {
	if workers < 1 {
		workers = 1
	}

	pool := pond.NewPool(workers)
	defer pool.StopAndWait()

	var wg sync.WaitGroup
	for layer := r.tree.NumLayers() - 2; layer >= 0; layer-- {
		nodes := r.tree.Layers[layer]
		for start := 0; start < len(nodes); start += neighbourChunkSize {
			end := min(start+neighbourChunkSize, len(nodes))
			wg.Add(1)

			pool.Submit(func() {
				defer wg.Done()

				for i := start; i < end; i++ {
					for d := Direction(0); d < directionCount; d++ {
						nodes[i].Neighbours[d] = r.tree.resolveNeighbour(uint8(layer), int32(i), d)
					}
				}
			})
		}
	}
	wg.Wait()
}
