package store

// Customer is a customer row with the stored profile embedding.
type Customer struct {
	ID               string
	Age              int
	Gender           string
	Location         string
	Preferences      []string
	PriceSensitivity float64
	Lifestyle        string
	Embedding        []float32
}
