package math32

import "math"

// MaxFloat32 is the largest finite float32.
const MaxFloat32 = float32(math.MaxFloat32)

// Min returns the minimum of two values.
func Min[T float32 | int32](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two values.
func Max[T float32 | int32](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Abs returns the absolute value of a float32.
func Abs(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// Pow2 returns 2 raised to n as a float32.
func Pow2(n int) float32 {
	return float32(math.Ldexp(1, n))
}
