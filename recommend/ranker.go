package recommend

import (
	"log/slog"
	"sort"

	"github.com/hrygo/recall/recommend/vector"
)

// Rank scores every candidate against the query vector and returns the
// top-k results at or above minScore, ordered by descending similarity.
//
// Ordering is fully deterministic: equal scores are broken by ascending
// candidate id, so a fixed (query, candidate set) pair always produces
// byte-identical output.
//
// A candidate whose embedding dimensionality differs from the query is a
// data-integrity defect in that one record: it is skipped and logged, and
// ranking of the remaining candidates continues. Out-of-stock candidates
// and candidates without an embedding are skipped silently.
func Rank(query vector.Vector, candidates []Candidate, minScore float32, topK int) []RankedResult {
	results := make([]RankedResult, 0, len(candidates))

	for _, c := range candidates {
		if !c.InStock {
			continue
		}
		if len(c.Embedding) == 0 {
			continue
		}

		score, err := vector.CosineSimilarity(query, c.Embedding)
		if err != nil {
			slog.Warn("skipping candidate with mismatched embedding dimension",
				"candidate_id", c.ID,
				"candidate_dim", len(c.Embedding),
				"query_dim", len(query),
			)
			continue
		}

		if score < minScore {
			continue
		}
		results = append(results, RankedResult{
			CandidateID: c.ID,
			Score:       score,
			Tier:        TierPrimary,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CandidateID < results[j].CandidateID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
