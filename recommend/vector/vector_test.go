package vector

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("IdenticalVectors", func(t *testing.T) {
		v := Vector{0.5, 0.3, 0.2, 0.8}
		sim, err := CosineSimilarity(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-3)
	})

	t.Run("OrthogonalVectors", func(t *testing.T) {
		a := Vector{1, 0, 0}
		b := Vector{0, 1, 0}
		sim, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, sim, 1e-6)
	})

	t.Run("OppositeVectors", func(t *testing.T) {
		a := Vector{1, 1}
		b := Vector{-1, -1}
		sim, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		assert.InDelta(t, -1.0, sim, 1e-3)
	})

	t.Run("ZeroVectorIsNotAnError", func(t *testing.T) {
		a := Vector{1, 2, 3}
		zero := Vector{0, 0, 0}

		sim, err := CosineSimilarity(a, zero)
		require.NoError(t, err)
		assert.Equal(t, float32(0), sim)

		sim, err = CosineSimilarity(zero, a)
		require.NoError(t, err)
		assert.Equal(t, float32(0), sim)

		sim, err = CosineSimilarity(zero, zero)
		require.NoError(t, err)
		assert.Equal(t, float32(0), sim)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		a := Vector{1, 2, 3}
		b := Vector{1, 2}
		_, err := CosineSimilarity(a, b)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDimensionMismatch))
	})

	t.Run("ScaleInvariance", func(t *testing.T) {
		a := Vector{0.1, 0.2, 0.3}
		b := Vector{1, 2, 3}
		sim, err := CosineSimilarity(a, b)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sim, 1e-3)
	})
}

func TestNorm(t *testing.T) {
	assert.InDelta(t, 5.0, Norm(Vector{3, 4}), 1e-9)
	assert.Equal(t, 0.0, Norm(Vector{0, 0, 0}))
	assert.Equal(t, 0.0, Norm(nil))
}
