package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

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
	row := d.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM product WHERE id = ?", id)
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			subcategory = excluded.subcategory,
			brand = excluded.brand,
			description = excluded.description,
			features = excluded.features,
			price = excluded.price,
			rating = excluded.rating,
			in_stock = excluded.in_stock,
			embedding = excluded.embedding
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
		float32ArrayToBLOB(product.Embedding),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert product %s", product.ID)
	}
	return product, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*store.Product, error) {
	var (
		product  store.Product
		features string
		blob     []byte
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
		&blob,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan product")
	}

	if features != "" {
		if err := json.Unmarshal([]byte(features), &product.Features); err != nil {
			return nil, errors.Wrapf(err, "unmarshal features for product %s", product.ID)
		}
	}
	product.Embedding, err = blobToFloat32Array(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "decode embedding for product %s", product.ID)
	}
	return &product, nil
}
