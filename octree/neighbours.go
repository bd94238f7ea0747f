package octree

// FindLinkInDirection looks for the same-layer neighbour of a node. It
// returns ok=false when the neighbouring cell was not allocated in this
// layer and a coarser layer must be searched. A volume boundary, or a layer
// 0 neighbour whose leaf is completely blocked, returns InvalidLink with
// ok=true.
func (o *Octree) FindLinkInDirection(layer uint8, index int32, d Direction) (Link, bool) {
	node := &o.Layers[layer][index]
	coord := node.Code.Coord().Add(d.Offset())
	if !coord.InRange(int32(o.GetNodesPerSide(layer))) {
		return InvalidLink, true
	}

	target, ok := o.GetIndexForCode(layer, EncodeCoord(coord))
	if !ok {
		return InvalidLink, false
	}

	neighbour := &o.Layers[layer][target]
	if layer == 0 && neighbour.HasChildren() && o.LeafNodes[neighbour.FirstChild.NodeIndex].IsCompletelyBlocked() {
		return InvalidLink, true
	}
	return NewLink(layer, target, 0), true
}

// resolveNeighbour climbs from a node towards the root until a layer holds
// a node next to it in direction d.
func (o *Octree) resolveNeighbour(layer uint8, index int32, d Direction) Link {
	lastSearchLayer := uint8(o.NumLayers() - 2)

	searchLayer, searchIndex := layer, index
	for {
		if link, ok := o.FindLinkInDirection(searchLayer, searchIndex, d); ok {
			return link
		}
		if searchLayer >= lastSearchLayer {
			return InvalidLink
		}

		node := &o.Layers[searchLayer][searchIndex]
		if node.Parent.IsValid() {
			searchLayer, searchIndex = node.Parent.Layer, node.Parent.NodeIndex
			continue
		}

		parent, ok := o.GetIndexForCode(searchLayer+1, node.Code.Parent())
		if !ok {
			return InvalidLink
		}
		searchLayer, searchIndex = searchLayer+1, parent
	}
}
