package index

import "math"

// Normalize returns v scaled to unit length. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	result := make([]float32, len(v))
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return result
	}

	inv := 1 / math.Sqrt(sumSquares)
	for i, x := range v {
		result[i] = float32(float64(x) * inv)
	}
	return result
}

// Dot returns the dot product of two equal length vectors. For unit
// vectors this is their cosine similarity.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
