package recommend

import (
	"context"

	"github.com/hrygo/recall/recommend/vector"
)

// Tier marks where a result set came from.
type Tier string

const (
	// TierPrimary means the results were produced by similarity ranking.
	TierPrimary Tier = "PRIMARY"
	// TierFallback means the precomputed default set was served instead.
	TierFallback Tier = "FALLBACK"
)

// Customer types reported in results.
const (
	CustomerTypeExisting = "existing"
	CustomerTypeNew      = "new"
	CustomerTypeFallback = "fallback"
)

// Candidate is a recommendable catalog item with a precomputed embedding.
// Candidates are immutable once loaded for the duration of a cache epoch.
type Candidate struct {
	ID          string        `json:"product_id"`
	Name        string        `json:"product_name"`
	Category    string        `json:"category"`
	Subcategory string        `json:"subcategory"`
	Brand       string        `json:"brand"`
	Description string        `json:"description"`
	Features    []string      `json:"features"`
	Price       float64       `json:"price"`
	Rating      float64       `json:"rating"`
	InStock     bool          `json:"in_stock"`
	Embedding   vector.Vector `json:"-"`
}

// CustomerProfile holds the declared attributes of a customer. It is the
// input for profile embedding and for the templated explanation.
type CustomerProfile struct {
	Age              int      `json:"age"`
	Gender           string   `json:"gender"`
	Location         string   `json:"location"`
	Preferences      []string `json:"preferences"`
	PriceSensitivity float64  `json:"price_sensitivity"`
	Lifestyle        string   `json:"lifestyle"`
}

// Customer is a known entity with a stored profile embedding.
type Customer struct {
	ID        string          `json:"customer_id"`
	Profile   CustomerProfile `json:"customer_metadata"`
	Embedding vector.Vector   `json:"-"`
}

// DefaultItem is one entry of the precomputed fallback set.
type DefaultItem struct {
	ProductID string  `json:"product_id"`
	Score     float32 `json:"similarity_score"`
	Reason    string  `json:"reason"`
}

// DefaultSet is the ordered fallback result set, served verbatim when
// similarity ranking is empty or low-confidence.
type DefaultSet struct {
	Items []DefaultItem `json:"items"`
}

// RankedResult is the raw output of similarity ranking, before enrichment
// with candidate attributes.
type RankedResult struct {
	CandidateID string  `json:"candidate_id"`
	Score       float32 `json:"similarity_score"`
	Tier        Tier    `json:"source_tier"`
}

// Recommendation is a ranked result enriched with candidate attributes.
type Recommendation struct {
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name"`
	Score       float32  `json:"similarity_score"`
	Tier        Tier     `json:"source_tier"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// Result is the outcome of one recommendation call. Every internal failure
// short of a total source outage folds into a FALLBACK-tier result with a
// human-readable reason, so callers rarely see a hard error.
type Result struct {
	CustomerID       string           `json:"customer_id"`
	CustomerType     string           `json:"customer_type"`
	Tier             Tier             `json:"result_tier"`
	Recommendations  []Recommendation `json:"recommendations"`
	Explanation      string           `json:"explanation"`
	FallbackReason   string           `json:"fallback_reason,omitempty"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
}

// Summary reports data-set counts for the operator endpoint.
type Summary struct {
	Products  int `json:"products_count"`
	Customers int `json:"customers_count"`
	Defaults  int `json:"default_recommendations_count"`
}

// DataSource loads candidates, customers and the default set from the
// persistent store. Implemented by the store package.
type DataSource interface {
	LoadCandidates(ctx context.Context) ([]Candidate, error)
	LoadCustomers(ctx context.Context) ([]Customer, error)
	LoadDefaults(ctx context.Context) (DefaultSet, error)
	SaveCustomer(ctx context.Context, customer *Customer) error
}

// EmbeddingService generates vector embeddings. Defined locally so the
// engine does not depend on a concrete provider.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) (vector.Vector, error)
	Dimensions() int
}

// ExplanationService turns a profile and a result set into a short
// natural-language explanation. Optional; absence is never fatal.
type ExplanationService interface {
	Explain(ctx context.Context, profile CustomerProfile, recommendations []Recommendation) (string, error)
}
