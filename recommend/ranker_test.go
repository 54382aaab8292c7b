package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/recall/recommend/vector"
)

func candidate(id string, embedding vector.Vector) Candidate {
	return Candidate{
		ID:        id,
		Name:      "Product " + id,
		Category:  "Electronics",
		InStock:   true,
		Embedding: embedding,
	}
}

func TestRank(t *testing.T) {
	query := vector.Vector{1, 0, 0}

	t.Run("OrdersByDescendingScore", func(t *testing.T) {
		candidates := []Candidate{
			candidate("P2", vector.Vector{0.5, 0.5, 0}),
			candidate("P1", vector.Vector{1, 0, 0}),
			candidate("P3", vector.Vector{0.2, 1, 0}),
		}

		results := Rank(query, candidates, 0.0, 10)
		require.Len(t, results, 3)
		assert.Equal(t, "P1", results[0].CandidateID)
		assert.Equal(t, "P2", results[1].CandidateID)
		assert.Equal(t, "P3", results[2].CandidateID)
		assert.Equal(t, TierPrimary, results[0].Tier)
	})

	t.Run("TieBrokenByAscendingID", func(t *testing.T) {
		candidates := []Candidate{
			candidate("PB", vector.Vector{1, 0, 0}),
			candidate("PA", vector.Vector{2, 0, 0}), // same direction, same score
			candidate("PC", vector.Vector{3, 0, 0}),
		}

		results := Rank(query, candidates, 0.0, 10)
		require.Len(t, results, 3)
		assert.Equal(t, "PA", results[0].CandidateID)
		assert.Equal(t, "PB", results[1].CandidateID)
		assert.Equal(t, "PC", results[2].CandidateID)
	})

	t.Run("DeterministicAcrossRuns", func(t *testing.T) {
		candidates := []Candidate{
			candidate("P3", vector.Vector{0.9, 0.1, 0}),
			candidate("P1", vector.Vector{0.8, 0.2, 0}),
			candidate("P2", vector.Vector{0.9, 0.1, 0}),
		}

		first := Rank(query, candidates, 0.0, 10)
		second := Rank(query, candidates, 0.0, 10)
		assert.Equal(t, first, second)
	})

	t.Run("ThresholdExcludesBeforeTruncation", func(t *testing.T) {
		candidates := []Candidate{
			candidate("P1", vector.Vector{1, 0, 0}),       // sim 1.0
			candidate("P2", vector.Vector{0, 1, 0}),       // sim 0.0
			candidate("P3", vector.Vector{0.7, 0.7, 0.1}), // sim ~0.7
		}

		results := Rank(query, candidates, 0.5, 1)
		require.Len(t, results, 1)
		assert.Equal(t, "P1", results[0].CandidateID)
	})

	t.Run("TruncatesToTopK", func(t *testing.T) {
		candidates := []Candidate{
			candidate("P1", vector.Vector{1, 0, 0}),
			candidate("P2", vector.Vector{0.9, 0.1, 0}),
			candidate("P3", vector.Vector{0.8, 0.2, 0}),
		}

		results := Rank(query, candidates, 0.0, 2)
		require.Len(t, results, 2)
		assert.Equal(t, "P1", results[0].CandidateID)
	})

	t.Run("SkipsOutOfStock", func(t *testing.T) {
		inStock := candidate("P1", vector.Vector{1, 0, 0})
		outOfStock := candidate("P2", vector.Vector{1, 0, 0})
		outOfStock.InStock = false

		results := Rank(query, []Candidate{inStock, outOfStock}, 0.0, 10)
		require.Len(t, results, 1)
		assert.Equal(t, "P1", results[0].CandidateID)
	})

	t.Run("SkipsMismatchedDimensionAndContinues", func(t *testing.T) {
		candidates := []Candidate{
			candidate("P1", vector.Vector{1, 0, 0}),
			candidate("P2", vector.Vector{1, 0}), // wrong dimension
			candidate("P3", vector.Vector{0.9, 0.1, 0}),
		}

		results := Rank(query, candidates, 0.0, 10)
		require.Len(t, results, 2)
		assert.Equal(t, "P1", results[0].CandidateID)
		assert.Equal(t, "P3", results[1].CandidateID)
	})

	t.Run("SkipsMissingEmbedding", func(t *testing.T) {
		candidates := []Candidate{
			candidate("P1", vector.Vector{1, 0, 0}),
			candidate("P2", nil),
		}

		results := Rank(query, candidates, 0.0, 10)
		require.Len(t, results, 1)
	})

	t.Run("ZeroVectorQueryMatchesNothingAboveThreshold", func(t *testing.T) {
		candidates := []Candidate{candidate("P1", vector.Vector{1, 0, 0})}
		results := Rank(vector.Vector{0, 0, 0}, candidates, 0.3, 10)
		assert.Empty(t, results)
	})
}
