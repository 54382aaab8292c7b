package store

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/hrygo/recall/recommend"
	"github.com/hrygo/recall/recommend/retry"
)

// DataSource adapts the store to the engine's data interface. Reads retry
// transient backing-store failures; a load that still fails is reported as a
// source outage and a failed write as a write failure.
type DataSource struct {
	store *Store
}

// NewDataSource wraps a store.
func NewDataSource(s *Store) *DataSource {
	return &DataSource{store: s}
}

func (d *DataSource) LoadCandidates(ctx context.Context) ([]recommend.Candidate, error) {
	var products []*Product
	err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultBackoff, func(ctx context.Context) error {
		var loadErr error
		products, loadErr = d.store.ListProducts(ctx)
		return loadErr
	})
	if err != nil {
		return nil, errors.Wrapf(recommend.ErrSourceUnavailable, "list products: %v", err)
	}

	candidates := make([]recommend.Candidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, recommend.Candidate{
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
		})
	}
	return candidates, nil
}

func (d *DataSource) LoadCustomers(ctx context.Context) ([]recommend.Customer, error) {
	var rows []*Customer
	err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultBackoff, func(ctx context.Context) error {
		var loadErr error
		rows, loadErr = d.store.ListCustomers(ctx)
		return loadErr
	})
	if err != nil {
		return nil, errors.Wrapf(recommend.ErrSourceUnavailable, "list customers: %v", err)
	}

	customers := make([]recommend.Customer, 0, len(rows))
	for _, c := range rows {
		customers = append(customers, recommend.Customer{
			ID: c.ID,
			Profile: recommend.CustomerProfile{
				Age:              c.Age,
				Gender:           c.Gender,
				Location:         c.Location,
				Preferences:      c.Preferences,
				PriceSensitivity: c.PriceSensitivity,
				Lifestyle:        c.Lifestyle,
			},
			Embedding: c.Embedding,
		})
	}
	return customers, nil
}

func (d *DataSource) LoadDefaults(ctx context.Context) (recommend.DefaultSet, error) {
	var rows []*DefaultRecommendation
	err := retry.Do(ctx, retry.DefaultAttempts, retry.DefaultBackoff, func(ctx context.Context) error {
		var loadErr error
		rows, loadErr = d.store.ListDefaultRecommendations(ctx)
		return loadErr
	})
	if err != nil {
		return recommend.DefaultSet{}, errors.Wrapf(recommend.ErrSourceUnavailable, "list default recommendations: %v", err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	set := recommend.DefaultSet{Items: make([]recommend.DefaultItem, 0, len(rows))}
	for _, r := range rows {
		set.Items = append(set.Items, recommend.DefaultItem{
			ProductID: r.ProductID,
			Score:     r.Score,
			Reason:    r.Reason,
		})
	}
	return set, nil
}

func (d *DataSource) SaveCustomer(ctx context.Context, customer *recommend.Customer) error {
	row := &Customer{
		ID:               customer.ID,
		Age:              customer.Profile.Age,
		Gender:           customer.Profile.Gender,
		Location:         customer.Profile.Location,
		Preferences:      customer.Profile.Preferences,
		PriceSensitivity: customer.Profile.PriceSensitivity,
		Lifestyle:        customer.Profile.Lifestyle,
		Embedding:        customer.Embedding,
	}
	if _, err := d.store.UpsertCustomer(ctx, row); err != nil {
		return errors.Wrapf(recommend.ErrWriteFailed, "upsert customer %s: %v", customer.ID, err)
	}
	return nil
}
