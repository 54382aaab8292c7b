package recommend

// FallbackScoreMultiplier is the confidence bar for the top primary result,
// expressed as a multiple of the inclusion threshold. Being admitted into
// the candidate set does not make a candidate a confident match.
const FallbackScoreMultiplier = 1.5

// Fallback reasons surfaced to the caller. These are user-visible
// explanatory metadata, not log-only detail.
const (
	ReasonLowSimilarity     = "Low similarity scores"
	ReasonNoSimilarProducts = "No similar products"
	ReasonNoEmbedding       = "Failed to generate customer embedding"
)

// ShouldFallback decides whether primary ranked results are good enough to
// serve. The rules are load-bearing business logic:
//
//  1. no results at all;
//  2. the top score is below FallbackScoreMultiplier x minScore;
//  3. fewer than 2 distinct categories AND fewer than 3 results, which
//     guards exploratory queries against a narrow result set.
func ShouldFallback(recommendations []Recommendation, minScore float32) bool {
	if len(recommendations) == 0 {
		return true
	}

	if recommendations[0].Score < FallbackScoreMultiplier*minScore {
		return true
	}

	categories := make(map[string]struct{}, len(recommendations))
	for _, rec := range recommendations {
		categories[rec.Category] = struct{}{}
	}
	if len(categories) < 2 && len(recommendations) < 3 {
		return true
	}

	return false
}

// ApplyDefaults turns the precomputed default set into FALLBACK-tier
// recommendations, preserving its order and enriching each entry with
// catalog attributes when the product is still known. Items whose product
// vanished from the catalog are dropped.
func ApplyDefaults(defaults DefaultSet, snapshot *Snapshot, limit int) []Recommendation {
	recommendations := make([]Recommendation, 0, len(defaults.Items))
	for _, item := range defaults.Items {
		if limit > 0 && len(recommendations) >= limit {
			break
		}

		candidate, ok := snapshot.Get(item.ProductID)
		if !ok {
			continue
		}

		reason := item.Reason
		if reason == "" {
			reason = "Popular choice"
		}
		recommendations = append(recommendations, Recommendation{
			ProductID:   candidate.ID,
			ProductName: candidate.Name,
			Score:       item.Score,
			Tier:        TierFallback,
			Category:    candidate.Category,
			Subcategory: candidate.Subcategory,
			Brand:       candidate.Brand,
			Price:       candidate.Price,
			Rating:      candidate.Rating,
			Description: candidate.Description,
			Features:    candidate.Features,
			Reason:      reason,
		})
	}
	return recommendations
}
