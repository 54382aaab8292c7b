package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/recall/recommend"
	"github.com/hrygo/recall/recommend/embedding"
	"github.com/hrygo/recall/store"
	"github.com/hrygo/recall/store/db"
)

// seedFile is the JSON layout accepted by the seed command. Field names
// match the wire names of the API so an exported data set can be re-imported
// unchanged.
type seedFile struct {
	Products  []seedProduct  `json:"products"`
	Customers []seedCustomer `json:"customers"`
	Defaults  []seedDefault  `json:"default_recommendations"`
}

type seedProduct struct {
	ID          string    `json:"product_id"`
	Name        string    `json:"product_name"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Brand       string    `json:"brand"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	InStock     bool      `json:"in_stock"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

type seedCustomer struct {
	ID               string    `json:"customer_id"`
	Age              int       `json:"age"`
	Gender           string    `json:"gender"`
	Location         string    `json:"location"`
	Preferences      []string  `json:"preferences"`
	PriceSensitivity float64   `json:"price_sensitivity"`
	Lifestyle        string    `json:"lifestyle"`
	Embedding        []float32 `json:"embedding,omitempty"`
}

type seedDefault struct {
	ProductID string  `json:"product_id"`
	Score     float32 `json:"similarity_score"`
	Reason    string  `json:"reason"`
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import products, customers and default recommendations from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("file")
			withEmbeddings, _ := cmd.Flags().GetBool("embed")

			instanceProfile, err := newProfile()
			if err != nil {
				return err
			}

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				return errors.Wrap(err, "failed to create db driver")
			}
			storeInstance := store.New(dbDriver, instanceProfile)
			defer storeInstance.Close()

			ctx := cmd.Context()
			if err := storeInstance.Migrate(ctx); err != nil {
				return errors.Wrap(err, "failed to migrate")
			}

			var embedder *embedding.Service
			if withEmbeddings {
				if !instanceProfile.IsEmbeddingEnabled() {
					return errors.New("--embed requires an embedding provider, configure one or pre-compute the embeddings in the seed file")
				}
				embedder, err = embedding.NewService(&embedding.Config{
					APIKey:     instanceProfile.EmbeddingAPIKey,
					BaseURL:    instanceProfile.EmbeddingBaseURL,
					Model:      instanceProfile.EmbeddingModel,
					Dimensions: instanceProfile.EmbeddingDimensions,
				})
				if err != nil {
					return err
				}
			}

			return runSeed(ctx, storeInstance, embedder, path, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("file", "seed.json", "path to the seed data file")
	cmd.Flags().Bool("embed", false, "compute missing embeddings with the configured provider")
	return cmd
}

// runSeed loads the seed file and writes every record through the store.
// When the file carries no default recommendations, the top-rated products
// are promoted into the fallback set.
func runSeed(ctx context.Context, storeInstance *store.Store, embedder *embedding.Service, path string, out io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read seed file %s", path)
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return errors.Wrapf(err, "failed to parse seed file %s", path)
	}

	for _, p := range data.Products {
		if p.ID == "" {
			return errors.Errorf("product %q has no product_id", p.Name)
		}
		if len(p.Embedding) == 0 && embedder != nil {
			text := recommend.FormatProductDescription(recommend.Candidate{
				Name:        p.Name,
				Category:    p.Category,
				Subcategory: p.Subcategory,
				Brand:       p.Brand,
				Description: p.Description,
				Features:    p.Features,
				Price:       p.Price,
			})
			vec, err := embedder.Embed(ctx, text)
			if err != nil {
				return errors.Wrapf(err, "failed to embed product %s", p.ID)
			}
			p.Embedding = vec
		}
		if _, err := storeInstance.UpsertProduct(ctx, &store.Product{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Subcategory: p.Subcategory,
			Brand:       p.Brand,
			Description: p.Description,
			Features:    p.Features,
			Price:       p.Price,
			Rating:      p.Rating,
			InStock:     p.InStock,
			Embedding:   p.Embedding,
		}); err != nil {
			return errors.Wrapf(err, "failed to save product %s", p.ID)
		}
	}

	for _, c := range data.Customers {
		if c.ID == "" {
			return errors.New("customer record has no customer_id")
		}
		if len(c.Embedding) == 0 && embedder != nil {
			text := recommend.FormatCustomerProfile(recommend.CustomerProfile{
				Age:              c.Age,
				Gender:           c.Gender,
				Location:         c.Location,
				Preferences:      c.Preferences,
				PriceSensitivity: c.PriceSensitivity,
				Lifestyle:        c.Lifestyle,
			})
			vec, err := embedder.Embed(ctx, text)
			if err != nil {
				return errors.Wrapf(err, "failed to embed customer %s", c.ID)
			}
			c.Embedding = vec
		}
		if _, err := storeInstance.UpsertCustomer(ctx, &store.Customer{
			ID:               c.ID,
			Age:              c.Age,
			Gender:           c.Gender,
			Location:         c.Location,
			Preferences:      c.Preferences,
			PriceSensitivity: c.PriceSensitivity,
			Lifestyle:        c.Lifestyle,
			Embedding:        c.Embedding,
		}); err != nil {
			return errors.Wrapf(err, "failed to save customer %s", c.ID)
		}
	}

	defaults := data.Defaults
	if len(defaults) == 0 {
		defaults = defaultsFromProducts(data.Products)
	}
	for i, d := range defaults {
		if _, err := storeInstance.UpsertDefaultRecommendation(ctx, &store.DefaultRecommendation{
			Position:  i + 1,
			ProductID: d.ProductID,
			Score:     d.Score,
			Reason:    d.Reason,
		}); err != nil {
			return errors.Wrapf(err, "failed to save default recommendation %s", d.ProductID)
		}
	}

	fmt.Fprintf(out, "Seeded %d products, %d customers, %d default recommendations\n",
		len(data.Products), len(data.Customers), len(defaults))
	return nil
}

// defaultsFromProducts promotes the five top-rated in-stock products into
// the fallback set.
func defaultsFromProducts(products []seedProduct) []seedDefault {
	ranked := make([]seedProduct, 0, len(products))
	for _, p := range products {
		if p.InStock {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	defaults := make([]seedDefault, 0, len(ranked))
	for _, p := range ranked {
		defaults = append(defaults, seedDefault{
			ProductID: p.ID,
			Score:     0.85,
			Reason:    "Popular choice for new customers",
		})
	}
	return defaults
}
