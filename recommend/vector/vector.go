// Package vector provides the embedding vector type and similarity math
// shared by the ranking and caching layers.
package vector

import (
	"math"

	"github.com/pkg/errors"
)

// Vector is a fixed-length embedding produced by an external model.
// The expected dimensionality is a deployment constant carried in the
// profile; it is never inferred from data.
type Vector = []float32

// ErrDimensionMismatch is returned when two vectors of different lengths
// are compared.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CosineSimilarity returns dot(a,b) / (||a|| * ||b||) in [-1, 1].
//
// A zero vector carries no directional information, so similarity against
// it is defined as 0.0 rather than an error.
func CosineSimilarity(a, b Vector) (float32, error) {
	if len(a) != len(b) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "got %d and %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Norm returns the Euclidean norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
