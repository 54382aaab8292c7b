package recommend

import (
	"github.com/hrygo/recall/internal/profile"
)

// Config represents recommendation engine configuration.
type Config struct {
	// SimilarityThreshold is the minimum cosine similarity for a candidate
	// to be included in primary results.
	SimilarityThreshold float32

	// MaxRecommendations is the top-k cut applied after ranking.
	MaxRecommendations int

	// EmbeddingDimensions is the fixed vector dimensionality of this
	// deployment. Query vectors of a different length are rejected.
	EmbeddingDimensions int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		SimilarityThreshold: 0.3,
		MaxRecommendations:  5,
		EmbeddingDimensions: 1536,
	}
}

// NewConfigFromProfile creates engine config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := DefaultConfig()
	if p.SimilarityThreshold != 0 {
		cfg.SimilarityThreshold = float32(p.SimilarityThreshold)
	}
	if p.MaxRecommendations > 0 {
		cfg.MaxRecommendations = p.MaxRecommendations
	}
	if p.EmbeddingDimensions > 0 {
		cfg.EmbeddingDimensions = p.EmbeddingDimensions
	}
	return cfg
}
