package math32

// Vector3i is an integer cell coordinate.
type Vector3i struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

func (v Vector3i) Add(other Vector3i) Vector3i {
	return Vector3i{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vector3i) Sub(other Vector3i) Vector3i {
	return Vector3i{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Vector3 converts the coordinate to float components.
func (v Vector3i) Vector3() Vector3 {
	return Vector3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// InRange reports whether every component lies in [0, size).
func (v Vector3i) InRange(size int32) bool {
	return v.X >= 0 && v.X < size &&
		v.Y >= 0 && v.Y < size &&
		v.Z >= 0 && v.Z < size
}

// Wrap folds every component into [0, size).
func (v Vector3i) Wrap(size int32) Vector3i {
	return Vector3i{
		X: ((v.X % size) + size) % size,
		Y: ((v.Y % size) + size) % size,
		Z: ((v.Z % size) + size) % size,
	}
}

func (v Vector3i) Max(other Vector3i) Vector3i {
	return Vector3i{Max(v.X, other.X), Max(v.Y, other.Y), Max(v.Z, other.Z)}
}

func (v Vector3i) Min(other Vector3i) Vector3i {
	return Vector3i{Min(v.X, other.X), Min(v.Y, other.Y), Min(v.Z, other.Z)}
}
