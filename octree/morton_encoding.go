package octree

import (
	"github.com/o0olele/svon-go/math32"
)

// MortonCode is the interleaved-bit index of a cell within a layer. Bit 0 is
// x, bit 1 is y, bit 2 is z, repeating.
type MortonCode uint64

// EncodeMorton3D encodes a 3D coordinate to a Morton code
func EncodeMorton3D(x, y, z uint32) MortonCode {
	return MortonCode(splitBy3(x) | (splitBy3(y) << 1) | (splitBy3(z) << 2))
}

// EncodeCoord encodes a non-negative cell coordinate.
func EncodeCoord(c math32.Vector3i) MortonCode {
	return EncodeMorton3D(uint32(c.X), uint32(c.Y), uint32(c.Z))
}

// splitBy3 expands a 21-bit integer to 63 bits, inserting 2 zeros after each bit
func splitBy3(v uint32) uint64 {
	x := uint64(v) & 0x1fffff
	x = (x | x<<32) & 0x1f00000000ffff
	x = (x | x<<16) & 0x1f0000ff0000ff
	x = (x | x<<8) & 0x100f00f00f00f00f
	x = (x | x<<4) & 0x10c30c30c30c30c3
	x = (x | x<<2) & 0x1249249249249249
	return x
}

// DecodeMorton3D decodes a Morton code to a 3D coordinate
func DecodeMorton3D(morton MortonCode) (uint32, uint32, uint32) {
	x := compact1By2(uint64(morton))
	y := compact1By2(uint64(morton) >> 1)
	z := compact1By2(uint64(morton) >> 2)
	return uint32(x), uint32(y), uint32(z)
}

// compact1By2 is the reverse operation, extracting 1 bit from each 3 bits
func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}

// Coord returns the decoded cell coordinate.
func (c MortonCode) Coord() math32.Vector3i {
	x, y, z := DecodeMorton3D(c)
	return math32.Vector3i{X: int32(x), Y: int32(y), Z: int32(z)}
}

// Parent returns the code of the enclosing cell one layer up.
func (c MortonCode) Parent() MortonCode {
	return c >> 3
}

// FirstChild returns the code of the lowest child cell one layer down. The
// other seven children follow it contiguously.
func (c MortonCode) FirstChild() MortonCode {
	return c << 3
}
