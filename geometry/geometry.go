package geometry

import (
	"github.com/o0olele/svon-go/math32"
	"github.com/o0olele/svon-go/octree"
)

// Geometry is a blocking shape that can be tested against query boxes.
type Geometry interface {
	GetBounds() AABB
	IntersectsAABB(aabb AABB) bool
	ContainsPoint(point math32.Vector3) bool
	GetType() string
}

// Set is an occupancy oracle over a list of boxes and triangles. Channels
// select the shapes taking part in a query: a shape with channel 0 blocks
// every channel.
type Set struct {
	Boxes     []Box      `json:"boxes"`
	Triangles []Triangle `json:"triangles"`
}

func (s *Set) AddBox(box Box) {
	s.Boxes = append(s.Boxes, box)
}

func (s *Set) AddTriangle(triangle Triangle) {
	s.Triangles = append(s.Triangles, triangle)
}

// AddTriangles adds the triangles of an indexed mesh.
func (s *Set) AddTriangles(vertices []math32.Vector3, indices []int32) {
	for i := 0; i+2 < len(indices); i += 3 {
		s.AddTriangle(Triangle{
			A: vertices[indices[i]],
			B: vertices[indices[i+1]],
			C: vertices[indices[i+2]],
		})
	}
}

func (s *Set) Len() int {
	return len(s.Boxes) + len(s.Triangles)
}

// Shapes returns every shape of the set.
func (s *Set) Shapes() []Geometry {
	shapes := make([]Geometry, 0, s.Len())
	for i := range s.Boxes {
		shapes = append(shapes, &s.Boxes[i])
	}
	for i := range s.Triangles {
		shapes = append(shapes, &s.Triangles[i])
	}
	return shapes
}

// GetBounds returns the bounds enclosing every shape.
func (s *Set) GetBounds() AABB {
	var bounds AABB
	for i, shape := range s.Shapes() {
		if i == 0 {
			bounds = shape.GetBounds()
			continue
		}
		bounds = bounds.Union(shape.GetBounds())
	}
	return bounds
}

// IsOccupied reports whether a shape overlaps the query box.
func (s *Set) IsOccupied(center math32.Vector3, halfExtent float32, params octree.QueryParams) (bool, error) {
	query := NewAABB(center, halfExtent)
	for i := range s.Boxes {
		box := &s.Boxes[i]
		if box.blocks(params.Channel) && box.IntersectsAABB(query) {
			return true, nil
		}
	}
	for i := range s.Triangles {
		triangle := &s.Triangles[i]
		if triangle.blocks(params.Channel) && triangle.IntersectsAABB(query) {
			return true, nil
		}
	}
	return false, nil
}

func blocksChannel(shape, query uint8) bool {
	return shape == 0 || shape == query
}
