package octree

import "math/bits"

// Node is one cell of a layer. It only exists when it, or one of its
// siblings under the same parent, contains blocking geometry.
type Node struct {
	Code       MortonCode `json:"code"`
	FirstChild Link       `json:"first_child"`
	Parent     Link       `json:"parent"`
	Neighbours [6]Link    `json:"neighbours"`
}

func newNode(code MortonCode) Node {
	node := Node{
		Code:       code,
		FirstChild: InvalidLink,
		Parent:     InvalidLink,
	}
	for i := range node.Neighbours {
		node.Neighbours[i] = InvalidLink
	}
	return node
}

// HasChildren reports whether the node links down to a finer layer, or to a
// leaf bitmask for layer 0.
func (node *Node) HasChildren() bool {
	return node.FirstChild.IsValid()
}

// Layer holds the nodes of one resolution, strictly ascending by code.
type Layer []Node

// LeafNode is the occupancy of the 4x4x4 sub-voxels under a layer 0 node,
// one bit per sub-voxel indexed by its morton code.
type LeafNode uint64

const (
	leafVoxelsPerSide = 4
	leafVoxelCount    = 64

	leafAllBlocked LeafNode = 0xffffffffffffffff
)

// SetNode marks a sub-voxel as blocked.
func (leaf *LeafNode) SetNode(index uint8) {
	*leaf |= 1 << index
}

// ClearNode marks a sub-voxel as open.
func (leaf *LeafNode) ClearNode(index uint8) {
	*leaf &^= 1 << index
}

// GetNode reports whether a sub-voxel is blocked.
func (leaf LeafNode) GetNode(index uint8) bool {
	return leaf&(1<<index) != 0
}

func (leaf LeafNode) IsCompletelyBlocked() bool {
	return leaf == leafAllBlocked
}

func (leaf LeafNode) IsCompletelyFree() bool {
	return leaf == 0
}

// BlockedCount returns the number of blocked sub-voxels.
func (leaf LeafNode) BlockedCount() int {
	return bits.OnesCount64(uint64(leaf))
}
