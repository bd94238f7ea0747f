package geometry

import "github.com/o0olele/svon-go/math32"

// AABB is axis-aligned bounding box
type AABB struct {
	Min math32.Vector3 `json:"min"`
	Max math32.Vector3 `json:"max"`
}

// NewAABB creates a cube from its center and half extent.
func NewAABB(center math32.Vector3, halfExtent float32) AABB {
	half := math32.Splat(halfExtent)
	return AABB{
		Min: center.Sub(half),
		Max: center.Add(half),
	}
}

// Contains checks if the point is inside the AABB
func (aabb *AABB) Contains(point math32.Vector3) bool {
	return point.X >= aabb.Min.X && point.X <= aabb.Max.X &&
		point.Y >= aabb.Min.Y && point.Y <= aabb.Max.Y &&
		point.Z >= aabb.Min.Z && point.Z <= aabb.Max.Z
}

// Center returns the center of the AABB
func (aabb *AABB) Center() math32.Vector3 {
	return aabb.Min.Add(aabb.Max).Scale(0.5)
}

// Size returns the size of the AABB
func (aabb *AABB) Size() math32.Vector3 {
	return aabb.Max.Sub(aabb.Min)
}

// Intersects checks if the AABB intersects with another AABB. Touching
// faces count.
func (aabb *AABB) Intersects(other AABB) bool {
	return aabb.Min.X <= other.Max.X && aabb.Max.X >= other.Min.X &&
		aabb.Min.Y <= other.Max.Y && aabb.Max.Y >= other.Min.Y &&
		aabb.Min.Z <= other.Max.Z && aabb.Max.Z >= other.Min.Z
}

// Overlaps checks if the AABB shares a volume with another AABB. Touching
// faces do not count.
func (aabb *AABB) Overlaps(other AABB) bool {
	return aabb.Min.X < other.Max.X && aabb.Max.X > other.Min.X &&
		aabb.Min.Y < other.Max.Y && aabb.Max.Y > other.Min.Y &&
		aabb.Min.Z < other.Max.Z && aabb.Max.Z > other.Min.Z
}

// Union returns the smallest AABB enclosing both.
func (aabb *AABB) Union(other AABB) AABB {
	return AABB{
		Min: math32.Vector3{
			X: math32.Min(aabb.Min.X, other.Min.X),
			Y: math32.Min(aabb.Min.Y, other.Min.Y),
			Z: math32.Min(aabb.Min.Z, other.Min.Z),
		},
		Max: math32.Vector3{
			X: math32.Max(aabb.Max.X, other.Max.X),
			Y: math32.Max(aabb.Max.Y, other.Max.Y),
			Z: math32.Max(aabb.Max.Z, other.Max.Z),
		},
	}
}

// IsEmpty checks if the AABB is empty (invalid)
func (aabb *AABB) IsEmpty() bool {
	return aabb.Min.X >= aabb.Max.X || aabb.Min.Y >= aabb.Max.Y || aabb.Min.Z >= aabb.Max.Z
}
