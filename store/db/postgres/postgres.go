package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/hrygo/recall/internal/profile"
	"github.com/hrygo/recall/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the PostgreSQL database named by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	postgresDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: postgresDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema. The embedding columns use pgvector with the
// configured dimensionality, so changing dimensions requires a fresh schema.
func (d *DB) Migrate(ctx context.Context) error {
	dimensions := d.profile.EmbeddingDimensions
	if dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS product (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			subcategory TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			features JSONB NOT NULL DEFAULT '[]',
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			in_stock BOOLEAN NOT NULL DEFAULT TRUE,
			embedding vector(%d)
		)`, dimensions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS customer (
			id TEXT PRIMARY KEY,
			age INTEGER NOT NULL DEFAULT 0,
			gender TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			preferences JSONB NOT NULL DEFAULT '[]',
			price_sensitivity DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			lifestyle TEXT NOT NULL DEFAULT '',
			embedding vector(%d)
		)`, dimensions),
		`CREATE TABLE IF NOT EXISTS default_recommendation (
			position INTEGER PRIMARY KEY,
			product_id TEXT NOT NULL,
			similarity_score REAL NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_product_category ON product (category)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate schema")
		}
	}
	return nil
}
