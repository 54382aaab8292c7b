package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/recall/recommend"
)

type fakeDriver struct {
	products  []*Product
	customers []*Customer
	defaults  []*DefaultRecommendation

	listProductsErr error
	upsertErr       error

	// failures counts down; while positive every call errors.
	failures int
}

func (f *fakeDriver) GetDB() *sql.DB                    { return nil }
func (f *fakeDriver) Close() error                      { return nil }
func (f *fakeDriver) Migrate(ctx context.Context) error { return nil }

func (f *fakeDriver) failing() bool {
	if f.failures > 0 {
		f.failures--
		return true
	}
	return false
}

func (f *fakeDriver) ListProducts(ctx context.Context) ([]*Product, error) {
	if f.listProductsErr != nil {
		return nil, f.listProductsErr
	}
	if f.failing() {
		return nil, errors.New("transient")
	}
	return f.products, nil
}

func (f *fakeDriver) GetProduct(ctx context.Context, id string) (*Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeDriver) UpsertProduct(ctx context.Context, product *Product) (*Product, error) {
	return product, nil
}

func (f *fakeDriver) ListCustomers(ctx context.Context) ([]*Customer, error) {
	return f.customers, nil
}

func (f *fakeDriver) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	for _, c := range f.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeDriver) UpsertCustomer(ctx context.Context, customer *Customer) (*Customer, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.customers = append(f.customers, customer)
	return customer, nil
}

func (f *fakeDriver) ListDefaultRecommendations(ctx context.Context) ([]*DefaultRecommendation, error) {
	return f.defaults, nil
}

func (f *fakeDriver) UpsertDefaultRecommendation(ctx context.Context, rec *DefaultRecommendation) (*DefaultRecommendation, error) {
	return rec, nil
}

func TestDataSourceLoadCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("ConvertsRows", func(t *testing.T) {
		driver := &fakeDriver{products: []*Product{
			{
				ID: "P1", Name: "Wireless Headphones", Category: "Electronics",
				Features: []string{"bluetooth"}, Price: 129.99, Rating: 4.6,
				InStock: true, Embedding: []float32{1, 0, 0},
			},
		}}
		source := NewDataSource(New(driver, nil))

		candidates, err := source.LoadCandidates(ctx)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "P1", candidates[0].ID)
		assert.Equal(t, "Electronics", candidates[0].Category)
		assert.Equal(t, []string{"bluetooth"}, candidates[0].Features)
		assert.EqualValues(t, []float32{1, 0, 0}, candidates[0].Embedding)
	})

	t.Run("PersistentFailureIsSourceUnavailable", func(t *testing.T) {
		driver := &fakeDriver{listProductsErr: errors.New("connection refused")}
		source := NewDataSource(New(driver, nil))

		// Cancelled context keeps the retry loop from sleeping through
		// its backoff schedule.
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := source.LoadCandidates(cancelled)
		require.Error(t, err)
		assert.True(t, errors.Is(err, recommend.ErrSourceUnavailable))
	})

	t.Run("TransientFailureIsRetried", func(t *testing.T) {
		if testing.Short() {
			t.Skip("retry backoff sleeps")
		}
		driver := &fakeDriver{
			failures: 1,
			products: []*Product{{ID: "P1", Name: "Widget", InStock: true}},
		}
		source := NewDataSource(New(driver, nil))

		candidates, err := source.LoadCandidates(ctx)
		require.NoError(t, err)
		assert.Len(t, candidates, 1)
	})
}

func TestDataSourceLoadCustomers(t *testing.T) {
	driver := &fakeDriver{customers: []*Customer{
		{
			ID: "CUST_001", Age: 34, Gender: "female", Location: "Seattle",
			Preferences: []string{"electronics"}, PriceSensitivity: 0.6,
			Lifestyle: "Active professional", Embedding: []float32{1, 0, 0},
		},
	}}
	source := NewDataSource(New(driver, nil))

	customers, err := source.LoadCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "CUST_001", customers[0].ID)
	assert.Equal(t, 34, customers[0].Profile.Age)
	assert.Equal(t, "Seattle", customers[0].Profile.Location)
	assert.EqualValues(t, []float32{1, 0, 0}, customers[0].Embedding)
}

func TestDataSourceLoadDefaults(t *testing.T) {
	driver := &fakeDriver{defaults: []*DefaultRecommendation{
		{Position: 2, ProductID: "P2", Score: 0.8},
		{Position: 1, ProductID: "P1", Score: 0.9, Reason: "Top seller"},
	}}
	source := NewDataSource(New(driver, nil))

	set, err := source.LoadDefaults(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Items, 2)
	assert.Equal(t, "P1", set.Items[0].ProductID)
	assert.Equal(t, "Top seller", set.Items[0].Reason)
	assert.Equal(t, "P2", set.Items[1].ProductID)
}

func TestDataSourceSaveCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("PersistsRow", func(t *testing.T) {
		driver := &fakeDriver{}
		source := NewDataSource(New(driver, nil))

		err := source.SaveCustomer(ctx, &recommend.Customer{
			ID:        "CUST_003",
			Profile:   recommend.CustomerProfile{Age: 41, Location: "Boston"},
			Embedding: []float32{0.5, 0.5, 0},
		})
		require.NoError(t, err)
		require.Len(t, driver.customers, 1)
		assert.Equal(t, "CUST_003", driver.customers[0].ID)
		assert.Equal(t, 41, driver.customers[0].Age)
	})

	t.Run("WriteFailure", func(t *testing.T) {
		driver := &fakeDriver{upsertErr: errors.New("disk full")}
		source := NewDataSource(New(driver, nil))

		err := source.SaveCustomer(ctx, &recommend.Customer{ID: "CUST_003"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, recommend.ErrWriteFailed))
	})
}
