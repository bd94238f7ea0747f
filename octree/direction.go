package octree

import "github.com/o0olele/svon-go/math32"

// Direction is one of the six axis directions. Its value indexes
// Node.Neighbours.
type Direction uint8

const (
	DirPosX Direction = iota
	DirNegX
	DirPosY
	DirNegY
	DirPosZ
	DirNegZ

	directionCount = 6
)

var directions = [directionCount]math32.Vector3i{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

var directionNames = [directionCount]string{"+x", "-x", "+y", "-y", "+z", "-z"}

var (
	// dirChildOffsets lists, per direction, the offsets of the 4 children of
	// a neighbour that face back towards the node looking in that direction.
	dirChildOffsets [directionCount][4]int32

	// dirLeafChildOffsets is the same for the 16 sub-voxels of a leaf.
	dirLeafChildOffsets [directionCount][16]uint8
)

func init() {
	for d := range directions {
		n := 0
		for i := 0; i < 8; i++ {
			if facesBack(Direction(d), MortonCode(i).Coord(), 1) {
				dirChildOffsets[d][n] = int32(i)
				n++
			}
		}

		n = 0
		for i := 0; i < leafVoxelCount; i++ {
			if facesBack(Direction(d), MortonCode(i).Coord(), leafVoxelsPerSide-1) {
				dirLeafChildOffsets[d][n] = uint8(i)
				n++
			}
		}
	}
}

// facesBack reports whether a child at coord lies on the face of its parent
// that is reached first when travelling in direction d.
func facesBack(d Direction, coord math32.Vector3i, last int32) bool {
	offset := directions[d]
	for axis := 0; axis < 3; axis++ {
		step := axisOf(offset, axis)
		if step == 0 {
			continue
		}
		value := axisOf(coord, axis)
		if step > 0 {
			return value == 0
		}
		return value == last
	}
	return false
}

func axisOf(v math32.Vector3i, axis int) int32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// Offset returns the unit step of the direction.
func (d Direction) Offset() math32.Vector3i {
	return directions[d]
}

func (d Direction) String() string {
	if int(d) >= directionCount {
		return "invalid"
	}
	return directionNames[d]
}
