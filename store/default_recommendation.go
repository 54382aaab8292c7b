package store

// DefaultRecommendation is one row of the precomputed fallback set.
// Position defines the serving order and is unique per row.
type DefaultRecommendation struct {
	Position  int
	ProductID string
	Score     float32
	Reason    string
}
