package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/hrygo/recall/store"
)

const customerColumns = "id, age, gender, location, preferences, price_sensitivity, lifestyle, embedding"

func (d *DB) ListCustomers(ctx context.Context) ([]*store.Customer, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT "+customerColumns+" FROM customer ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	defer rows.Close()

	var customers []*store.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	return customers, nil
}

func (d *DB) GetCustomer(ctx context.Context, id string) (*store.Customer, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customer WHERE id = ?", id)
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return customer, nil
}

func (d *DB) UpsertCustomer(ctx context.Context, customer *store.Customer) (*store.Customer, error) {
	preferences, err := json.Marshal(customer.Preferences)
	if err != nil {
		return nil, errors.Wrap(err, "marshal customer preferences")
	}

	stmt := `
		INSERT INTO customer (` + customerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			age = excluded.age,
			gender = excluded.gender,
			location = excluded.location,
			preferences = excluded.preferences,
			price_sensitivity = excluded.price_sensitivity,
			lifestyle = excluded.lifestyle,
			embedding = excluded.embedding
	`
	_, err = d.db.ExecContext(ctx, stmt,
		customer.ID,
		customer.Age,
		customer.Gender,
		customer.Location,
		string(preferences),
		customer.PriceSensitivity,
		customer.Lifestyle,
		float32ArrayToBLOB(customer.Embedding),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert customer %s", customer.ID)
	}
	return customer, nil
}

func scanCustomer(row rowScanner) (*store.Customer, error) {
	var (
		customer    store.Customer
		preferences string
		blob        []byte
	)
	err := row.Scan(
		&customer.ID,
		&customer.Age,
		&customer.Gender,
		&customer.Location,
		&preferences,
		&customer.PriceSensitivity,
		&customer.Lifestyle,
		&blob,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan customer")
	}

	if preferences != "" {
		if err := json.Unmarshal([]byte(preferences), &customer.Preferences); err != nil {
			return nil, errors.Wrapf(err, "unmarshal preferences for customer %s", customer.ID)
		}
	}
	customer.Embedding, err = blobToFloat32Array(blob)
	if err != nil {
		return nil, errors.Wrapf(err, "decode embedding for customer %s", customer.ID)
	}
	return &customer, nil
}
