package store

// Product is a catalog row. The embedding is precomputed offline or by the
// embedding provider at load time; a product without one is excluded from
// similarity ranking but still served by category browse and fallback.
type Product struct {
	ID          string
	Name        string
	Category    string
	Subcategory string
	Brand       string
	Description string
	Features    []string
	Price       float64
	Rating      float64
	InStock     bool
	Embedding   []float32
}
