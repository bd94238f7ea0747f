package octree

import "fmt"

const (
	// MaxLayers is the number of layers a link can address.
	MaxLayers = 14

	invalidLayer uint8 = 15
)

// Link addresses a node by layer and index, and a leaf sub-voxel by
// SubnodeIndex when Layer is 0. Links never hold pointers: layers are
// appended to while the tree is built.
type Link struct {
	Layer        uint8 `json:"layer"`
	NodeIndex    int32 `json:"node"`
	SubnodeIndex uint8 `json:"subnode"`
}

// InvalidLink means "no connection".
var InvalidLink = Link{Layer: invalidLayer}

// NewLink creates a link to a node or leaf sub-voxel.
func NewLink(layer uint8, nodeIndex int32, subnodeIndex uint8) Link {
	return Link{
		Layer:        layer,
		NodeIndex:    nodeIndex,
		SubnodeIndex: subnodeIndex,
	}
}

func (l Link) IsValid() bool {
	return l.Layer != invalidLayer
}

func (l *Link) SetInvalid() {
	*l = InvalidLink
}

func (l Link) String() string {
	if !l.IsValid() {
		return "invalid"
	}
	return fmt.Sprintf("%d:%d:%d", l.Layer, l.NodeIndex, l.SubnodeIndex)
}
