package geometry

import "github.com/o0olele/svon-go/math32"

// Box is a box geometry
type Box struct {
	Center  math32.Vector3 `json:"center"`
	Size    math32.Vector3 `json:"size"`
	Channel uint8          `json:"channel,omitempty"`
}

// GetBounds returns the bounding box of the box
func (b *Box) GetBounds() AABB {
	halfSize := b.Size.Scale(0.5)
	return AABB{
		b.Center.Sub(halfSize),
		b.Center.Add(halfSize),
	}
}

// IntersectsAABB checks if the box shares a volume with an AABB. Boxes that
// only touch a face of the query do not block it.
func (b *Box) IntersectsAABB(aabb AABB) bool {
	bounds := b.GetBounds()
	return bounds.Overlaps(aabb)
}

// ContainsPoint checks if the point is inside the box
func (b *Box) ContainsPoint(point math32.Vector3) bool {
	bounds := b.GetBounds()
	return bounds.Contains(point)
}

func (b *Box) GetType() string {
	return "box"
}

func (b *Box) blocks(channel uint8) bool {
	return blocksChannel(b.Channel, channel)
}
