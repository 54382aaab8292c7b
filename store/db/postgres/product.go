package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/recall/store"
)

const productColumns = "id, name, category, subcategory, brand, description, features, price, rating, in_stock, embedding"

func (d *DB) ListProducts(ctx context.Context) ([]*store.Product, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT "+productColumns+" FROM product ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	var products []*store.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (d *DB) GetProduct(ctx context.Context, id string) (*store.Product, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM product WHERE id = $1", id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

func (d *DB) UpsertProduct(ctx context.Context, product *store.Product) (*store.Product, error) {
	features, err := json.Marshal(product.Features)
	if err != nil {
		return nil, errors.Wrap(err, "marshal product features")
	}

	stmt := `
		INSERT INTO product (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			brand = EXCLUDED.brand,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			price = EXCLUDED.price,
			rating = EXCLUDED.rating,
			in_stock = EXCLUDED.in_stock,
			embedding = EXCLUDED.embedding
	`
	_, err = d.db.ExecContext(ctx, stmt,
		product.ID,
		product.Name,
		product.Category,
		product.Subcategory,
		product.Brand,
		product.Description,
		string(features),
		product.Price,
		product.Rating,
		product.InStock,
		vectorValue(product.Embedding),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert product %s", product.ID)
	}
	return product, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// vectorValue maps an empty vector onto a NULL column value.
func vectorValue(vec []float32) any {
	if len(vec) == 0 {
		return nil
	}
	return pgvector.NewVector(vec)
}

func scanProduct(row rowScanner) (*store.Product, error) {
	var (
		product  store.Product
		features []byte
		vec      sql.Null[pgvector.Vector]
	)
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Subcategory,
		&product.Brand,
		&product.Description,
		&features,
		&product.Price,
		&product.Rating,
		&product.InStock,
		&vec,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan product")
	}

	if len(features) > 0 {
		if err := json.Unmarshal(features, &product.Features); err != nil {
			return nil, errors.Wrapf(err, "unmarshal features for product %s", product.ID)
		}
	}
	if vec.Valid {
		product.Embedding = vec.V.Slice()
	}
	return &product, nil
}
