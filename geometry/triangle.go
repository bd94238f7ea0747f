package geometry

import "github.com/o0olele/svon-go/math32"

const degenerateEpsilon = 1e-10

// Triangle is a triangle geometry
type Triangle struct {
	A       math32.Vector3 `json:"a"`
	B       math32.Vector3 `json:"b"`
	C       math32.Vector3 `json:"c"`
	Channel uint8          `json:"channel,omitempty"`
}

// GetBounds returns the bounding box of the triangle
func (t *Triangle) GetBounds() AABB {
	return AABB{
		Min: math32.Vector3{
			X: math32.Min(math32.Min(t.A.X, t.B.X), t.C.X),
			Y: math32.Min(math32.Min(t.A.Y, t.B.Y), t.C.Y),
			Z: math32.Min(math32.Min(t.A.Z, t.B.Z), t.C.Z),
		},
		Max: math32.Vector3{
			X: math32.Max(math32.Max(t.A.X, t.B.X), t.C.X),
			Y: math32.Max(math32.Max(t.A.Y, t.B.Y), t.C.Y),
			Z: math32.Max(math32.Max(t.A.Z, t.B.Z), t.C.Z),
		},
	}
}

// IntersectsAABB tests the triangle against an AABB with the separating axis
// theorem: the triangle normal, the three box axes and the nine edge cross
// products.
func (t *Triangle) IntersectsAABB(aabb AABB) bool {
	bounds := t.GetBounds()
	if !bounds.Intersects(aabb) {
		return false
	}
	if aabb.Contains(t.A) && aabb.Contains(t.B) && aabb.Contains(t.C) {
		return true
	}

	center := aabb.Center()
	halfSize := aabb.Size().Scale(0.5)

	v0 := t.A.Sub(center)
	v1 := t.B.Sub(center)
	v2 := t.C.Sub(center)
	edges := [3]math32.Vector3{v1.Sub(v0), v2.Sub(v1), v0.Sub(v2)}

	axes := make([]math32.Vector3, 0, 13)
	axes = append(axes, edges[0].Cross(edges[1]))
	boxAxes := [3]math32.Vector3{{X: 1}, {Y: 1}, {Z: 1}}
	axes = append(axes, boxAxes[:]...)
	for _, u := range boxAxes {
		for _, f := range edges {
			axes = append(axes, u.Cross(f))
		}
	}

	for _, axis := range axes {
		if axis.Length() < degenerateEpsilon {
			continue
		}
		if separates(axis, v0, v1, v2, halfSize) {
			return false
		}
	}
	return true
}

// separates reports whether the projections of the triangle and the box on
// axis are disjoint.
func separates(axis, v0, v1, v2, halfSize math32.Vector3) bool {
	p0 := v0.Dot(axis)
	p1 := v1.Dot(axis)
	p2 := v2.Dot(axis)

	r := math32.Abs(halfSize.X*axis.X) + math32.Abs(halfSize.Y*axis.Y) + math32.Abs(halfSize.Z*axis.Z)
	return math32.Max(math32.Max(p0, p1), p2) < -r || math32.Min(math32.Min(p0, p1), p2) > r
}

// ContainsPoint checks if the point is within the triangle bounds and close
// to its plane.
func (t *Triangle) ContainsPoint(point math32.Vector3) bool {
	bounds := t.GetBounds()
	if !bounds.Contains(point) {
		return false
	}

	normal := t.GetNormal()
	if normal.Length() < degenerateEpsilon {
		return true
	}
	return math32.Abs(point.Sub(t.A).Dot(normal)) < 1e-6
}

// GetNormal returns the normal of the triangle
func (t *Triangle) GetNormal() math32.Vector3 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Normalize()
}

func (t *Triangle) GetType() string {
	return "triangle"
}

func (t *Triangle) blocks(channel uint8) bool {
	return blocksChannel(t.Channel, channel)
}
