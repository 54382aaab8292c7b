// Package store provides database access to the catalog, customer and
// default recommendation data sets through a driver abstraction.
package store

import (
	"context"
	"database/sql"

	"github.com/hrygo/recall/internal/profile"
)

// Driver is the database-specific backend. Implemented by store/db/sqlite
// and store/db/postgres.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error

	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	UpsertProduct(ctx context.Context, product *Product) (*Product, error)

	ListCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	UpsertCustomer(ctx context.Context, customer *Customer) (*Customer, error)

	ListDefaultRecommendations(ctx context.Context) ([]*DefaultRecommendation, error)
	UpsertDefaultRecommendation(ctx context.Context, rec *DefaultRecommendation) (*DefaultRecommendation, error)
}

// Store provides access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Migrate creates or upgrades the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.driver.ListProducts(ctx)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.driver.GetProduct(ctx, id)
}

func (s *Store) UpsertProduct(ctx context.Context, product *Product) (*Product, error) {
	return s.driver.UpsertProduct(ctx, product)
}

func (s *Store) ListCustomers(ctx context.Context) ([]*Customer, error) {
	return s.driver.ListCustomers(ctx)
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.driver.GetCustomer(ctx, id)
}

func (s *Store) UpsertCustomer(ctx context.Context, customer *Customer) (*Customer, error) {
	return s.driver.UpsertCustomer(ctx, customer)
}

func (s *Store) ListDefaultRecommendations(ctx context.Context) ([]*DefaultRecommendation, error) {
	return s.driver.ListDefaultRecommendations(ctx)
}

func (s *Store) UpsertDefaultRecommendation(ctx context.Context, rec *DefaultRecommendation) (*DefaultRecommendation, error) {
	return s.driver.UpsertDefaultRecommendation(ctx, rec)
}
