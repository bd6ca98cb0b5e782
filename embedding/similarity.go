package embedding

import (
	"fmt"
	"math"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d != %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors must not be empty")
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("vectors must not be zero vectors")
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// NormalizeInPlace scales a vector to unit length (L2 norm = 1).
func NormalizeInPlace(v []float64) error {
	if len(v) == 0 {
		return fmt.Errorf("vector must not be empty")
	}

	var norm float64
	for _, val := range v {
		norm += val * val
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return fmt.Errorf("cannot normalize zero vector")
	}

	for i := range v {
		v[i] /= norm
	}
	return nil
}

// Magnitude calculates the L2 norm of a vector.
func Magnitude(v []float64) float64 {
	var sum float64
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}
