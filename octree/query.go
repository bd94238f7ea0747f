package octree

import "github.com/o0olele/svon-go/math32"

// GetNeighbours expands the six stored neighbour links of a node into the
// traversable links touching it. Neighbours with children are expanded down
// to the finest nodes, or open leaf sub-voxels, on the face looking back at
// the node.
func (o *Octree) GetNeighbours(link Link) []Link {
	node := o.GetNode(link)

	var neighbours []Link
	for d := Direction(0); d < directionCount; d++ {
		neighbour := node.Neighbours[d]
		if !neighbour.IsValid() {
			continue
		}
		neighbours = o.expandNeighbour(neighbour, d, neighbours)
	}
	return neighbours
}

// expandNeighbour appends to dst the finest links reachable from a neighbour
// in direction d. Children are pushed on a stack together with the
// direction, so the walk is bounded by the depth of the tree.
func (o *Octree) expandNeighbour(neighbour Link, d Direction, dst []Link) []Link {
	stack := []Link{neighbour}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := o.GetNode(current)
		if !node.HasChildren() {
			dst = append(dst, current)
			continue
		}

		if current.Layer == 0 {
			leaf := o.LeafNodes[node.FirstChild.NodeIndex]
			for _, sub := range dirLeafChildOffsets[d] {
				if !leaf.GetNode(sub) {
					dst = append(dst, NewLink(0, current.NodeIndex, sub))
				}
			}
			continue
		}

		first := node.FirstChild
		for _, offset := range dirChildOffsets[d] {
			stack = append(stack, NewLink(first.Layer, first.NodeIndex+offset, 0))
		}
	}
	return dst
}

// GetLeafNeighbours returns the open sub-voxels next to a leaf sub-voxel,
// crossing into the neighbouring leaf blocks where needed. A neighbour node
// without a leaf is returned as a node link. Links to nodes without a leaf
// are answered by GetNeighbours.
func (o *Octree) GetLeafNeighbours(link Link) []Link {
	node := o.GetNode(link)
	if link.Layer != 0 || !node.HasChildren() {
		return o.GetNeighbours(link)
	}

	leaf := o.LeafNodes[node.FirstChild.NodeIndex]
	coord := MortonCode(link.SubnodeIndex).Coord()

	var neighbours []Link
	for d := Direction(0); d < directionCount; d++ {
		next := coord.Add(d.Offset())
		if next.InRange(leafVoxelsPerSide) {
			sub := uint8(EncodeCoord(next))
			if !leaf.GetNode(sub) {
				neighbours = append(neighbours, NewLink(0, link.NodeIndex, sub))
			}
			continue
		}

		if sub, ok := o.crossLeafBoundary(node.Neighbours[d], next); ok {
			neighbours = append(neighbours, sub)
		}
	}
	return neighbours
}

// crossLeafBoundary maps a sub-voxel coordinate that left its block onto the
// block of the stored neighbour.
func (o *Octree) crossLeafBoundary(neighbour Link, coord math32.Vector3i) (Link, bool) {
	if !neighbour.IsValid() {
		return InvalidLink, false
	}

	node := o.GetNode(neighbour)
	if neighbour.Layer != 0 || !node.HasChildren() {
		return neighbour, true
	}

	leaf := o.LeafNodes[node.FirstChild.NodeIndex]
	if leaf.IsCompletelyBlocked() {
		return InvalidLink, false
	}

	sub := uint8(EncodeCoord(coord.Wrap(leafVoxelsPerSide)))
	if leaf.GetNode(sub) {
		return InvalidLink, false
	}
	return NewLink(0, neighbour.NodeIndex, sub), true
}
