package octree

import (
	"sort"
	"unsafe"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/svon-go/math32"
)

// Octree is a sparse voxel octree over the cube Origin ± Extent. Layer 0 is
// the finest node layer, the last layer holds the single root. It is
// immutable once built and safe for concurrent reads.
type Octree struct {
	VoxelPower uint8          `json:"voxel_power"`
	Origin     math32.Vector3 `json:"origin"`
	Extent     math32.Vector3 `json:"extent"`
	Layers     []Layer        `json:"layers"`
	LeafNodes  []LeafNode     `json:"leaf_nodes"`
}

// NewOctree creates an empty tree with VoxelPower+1 layers.
func NewOctree(origin, extent math32.Vector3, voxelPower uint8) *Octree {
	layers := make([]Layer, int(voxelPower)+1)
	for i := range layers {
		layers[i] = Layer{}
	}
	return &Octree{
		VoxelPower: voxelPower,
		Origin:     origin,
		Extent:     extent,
		Layers:     layers,
		LeafNodes:  []LeafNode{},
	}
}

func (o *Octree) NumLayers() int {
	return len(o.Layers)
}

// GetVoxelSize returns the edge length of a node in the given layer.
func (o *Octree) GetVoxelSize(layer uint8) float32 {
	return (o.Extent.X / math32.Pow2(int(o.VoxelPower))) * math32.Pow2(int(layer)+1)
}

// GetNodesPerSide returns the number of cells along one axis of a layer.
func (o *Octree) GetNodesPerSide(layer uint8) int {
	return 1 << (int(o.VoxelPower) - int(layer))
}

// GetNodesInLayer returns the number of candidate cells of a layer.
func (o *Octree) GetNodesInLayer(layer uint8) int {
	return 1 << (3 * (int(o.VoxelPower) - int(layer)))
}

// GetNodePosition returns the world center of the cell with the given code.
func (o *Octree) GetNodePosition(layer uint8, code MortonCode) math32.Vector3 {
	voxelSize := o.GetVoxelSize(layer)
	return o.Origin.Sub(o.Extent).
		Add(code.Coord().Vector3().Scale(voxelSize)).
		Add(math32.Splat(voxelSize * 0.5))
}

// GetLinkPosition returns the world center of the linked node or leaf
// sub-voxel, and whether that position is open.
func (o *Octree) GetLinkPosition(link Link) (math32.Vector3, bool) {
	node := o.GetNode(link)
	position := o.GetNodePosition(link.Layer, node.Code)
	if link.Layer != 0 || !node.HasChildren() {
		return position, true
	}

	voxelSize := o.GetVoxelSize(0)
	sub := MortonCode(link.SubnodeIndex).Coord().Vector3()
	position = position.Add(sub.Scale(voxelSize * 0.25)).Sub(math32.Splat(voxelSize * 0.375))
	return position, !o.GetLeafNode(node.FirstChild.NodeIndex).GetNode(link.SubnodeIndex)
}

// GetNode returns the node a valid link points at.
func (o *Octree) GetNode(link Link) *Node {
	return &o.Layers[link.Layer][link.NodeIndex]
}

func (o *Octree) GetLeafNode(index int32) LeafNode {
	return o.LeafNodes[index]
}

// GetIndexForCode finds the index of the node with the given code.
func (o *Octree) GetIndexForCode(layer uint8, code MortonCode) (int32, bool) {
	nodes := o.Layers[layer]
	i := sort.Search(len(nodes), func(i int) bool {
		return nodes[i].Code >= code
	})
	if i < len(nodes) && nodes[i].Code == code {
		return int32(i), true
	}
	return -1, false
}

// GetLinkForPosition returns the finest node, or leaf sub-voxel, containing
// a world position. It walks down from the root through first-child links.
func (o *Octree) GetLinkForPosition(position math32.Vector3) (Link, bool) {
	root := uint8(o.NumLayers() - 1)
	if len(o.Layers[root]) == 0 {
		return InvalidLink, false
	}

	local := position.Sub(o.Origin.Sub(o.Extent))
	if !local.Floor(o.GetVoxelSize(root)).InRange(1) {
		return InvalidLink, false
	}

	link := NewLink(root, 0, 0)
	for {
		node := o.GetNode(link)
		if !node.HasChildren() {
			return link, true
		}

		if link.Layer == 0 {
			voxelSize := o.GetVoxelSize(0)
			cell := local.Floor(voxelSize)
			sub := local.Sub(cell.Vector3().Scale(voxelSize)).Floor(voxelSize * 0.25)
			sub = sub.Max(math32.Vector3i{}).Min(math32.Vector3i{X: 3, Y: 3, Z: 3})
			link.SubnodeIndex = uint8(EncodeCoord(sub))
			return link, true
		}

		childLayer := link.Layer - 1
		code := EncodeCoord(local.Floor(o.GetVoxelSize(childLayer)))
		offset := int32(code - node.Code.FirstChild())
		if offset < 0 || offset > 7 {
			return link, true
		}
		link = NewLink(childLayer, node.FirstChild.NodeIndex+offset, 0)
	}
}

// TotalNodes returns the number of nodes across all layers.
func (o *Octree) TotalNodes() int {
	total := 0
	for _, layer := range o.Layers {
		total += len(layer)
	}
	return total
}

// MemorySize returns the approximate size of the node and leaf arrays.
func (o *Octree) MemorySize() int {
	return o.TotalNodes()*int(unsafe.Sizeof(Node{})) + len(o.LeafNodes)*int(unsafe.Sizeof(LeafNode(0)))
}

// Validate checks the structural invariants: sorted unique codes per layer,
// contiguous children with parent back-links, and one leaf slot per layer 0
// node.
func (o *Octree) Validate() error {
	if len(o.Layers) == 0 || len(o.Layers) > MaxLayers || len(o.Layers) != int(o.VoxelPower)+1 {
		return errors.New("invalid layer count").
			WithType(ErrTypeInvariant).
			WithTag("layers", len(o.Layers)).
			WithTag("voxel_power", o.VoxelPower)
	}

	for l, nodes := range o.Layers {
		for i := range nodes {
			if i > 0 && nodes[i-1].Code >= nodes[i].Code {
				return errors.New("layer is not strictly ascending").
					WithType(ErrTypeInvariant).
					WithTag("layer", l).
					WithTag("index", i)
			}
			for _, link := range append(nodes[i].Neighbours[:], nodes[i].Parent) {
				if link.IsValid() && !o.ContainsLink(link) {
					return errors.New("link out of range").
						WithType(ErrTypeInvariant).
						WithTag("layer", l).
						WithTag("index", i).
						WithTag("link", link.String())
				}
			}
		}
	}

	if len(o.LeafNodes) != len(o.Layers[0]) {
		return errors.New("leaf slot count does not match layer 0").
			WithType(ErrTypeInvariant).
			WithTag("leaves", len(o.LeafNodes)).
			WithTag("nodes", len(o.Layers[0]))
	}

	for i, node := range o.Layers[0] {
		if !node.HasChildren() {
			if !o.LeafNodes[i].IsCompletelyFree() {
				return errors.New("open layer 0 node has a blocked leaf").
					WithType(ErrTypeInvariant).
					WithTag("index", i)
			}
			continue
		}
		if node.FirstChild.Layer != 0 || node.FirstChild.NodeIndex != int32(i) {
			return errors.New("layer 0 node does not own its leaf slot").
				WithType(ErrTypeInvariant).
				WithTag("index", i).
				WithTag("first_child", node.FirstChild.String())
		}
	}

	for l := 1; l < len(o.Layers); l++ {
		for i, node := range o.Layers[l] {
			if !node.HasChildren() {
				continue
			}
			if err := o.validateChildren(uint8(l), int32(i)); err != nil {
				return err
			}
		}
	}

	return nil
}

// ContainsLink reports whether a link addresses an existing node and a
// sub-voxel index within a leaf.
func (o *Octree) ContainsLink(link Link) bool {
	return int(link.Layer) < len(o.Layers) &&
		link.NodeIndex >= 0 &&
		int(link.NodeIndex) < len(o.Layers[link.Layer]) &&
		link.SubnodeIndex < leafVoxelCount
}

func (o *Octree) validateChildren(layer uint8, index int32) error {
	node := o.Layers[layer][index]
	first := node.FirstChild
	if first.Layer != layer-1 || first.NodeIndex < 0 || int(first.NodeIndex)+8 > len(o.Layers[first.Layer]) {
		return errors.New("first child out of range").
			WithType(ErrTypeInvariant).
			WithTag("layer", layer).
			WithTag("index", index).
			WithTag("first_child", first.String())
	}

	children := o.Layers[first.Layer]
	for k := int32(0); k < 8; k++ {
		child := children[first.NodeIndex+k]
		if child.Code != node.Code.FirstChild()+MortonCode(k) {
			return errors.New("children are not contiguous").
				WithType(ErrTypeInvariant).
				WithTag("layer", layer).
				WithTag("index", index).
				WithTag("child", k)
		}
		if child.Parent != NewLink(layer, index, 0) {
			return errors.New("child does not link back to its parent").
				WithType(ErrTypeInvariant).
				WithTag("layer", layer).
				WithTag("index", index).
				WithTag("child", k)
		}
	}
	return nil
}
