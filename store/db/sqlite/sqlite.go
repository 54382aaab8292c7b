package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/recall/internal/profile"
	"github.com/hrygo/recall/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database named by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Connect with some sane settings:
	// - No foreign key constraints: explicit to prevent surprises on SQLite upgrades.
	// - busy_timeout so concurrent readers wait instead of failing.
	// - Journal mode set to WAL, the recommended mode as it prevents locking issues.
	//
	// With the `modernc.org/sqlite` driver each pragma must be prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// A single connection is optimal for SQLite with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema. Statements are idempotent so startup can run
// them unconditionally.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS product (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			subcategory TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			features TEXT NOT NULL DEFAULT '[]',
			price REAL NOT NULL DEFAULT 0,
			rating REAL NOT NULL DEFAULT 0,
			in_stock INTEGER NOT NULL DEFAULT 1,
			embedding BLOB
		)`,
		`CREATE TABLE IF NOT EXISTS customer (
			id TEXT PRIMARY KEY,
			age INTEGER NOT NULL DEFAULT 0,
			gender TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			preferences TEXT NOT NULL DEFAULT '[]',
			price_sensitivity REAL NOT NULL DEFAULT 0.5,
			lifestyle TEXT NOT NULL DEFAULT '',
			embedding BLOB
		)`,
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

// IsInitialized reports whether the schema exists.
func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name='product')").Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check if database is initialized")
	}
	return exists, nil
}
