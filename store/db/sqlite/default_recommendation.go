package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/recall/store"
)

func (d *DB) ListDefaultRecommendations(ctx context.Context) ([]*store.DefaultRecommendation, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT position, product_id, similarity_score, reason FROM default_recommendation ORDER BY position")
	if err != nil {
		return nil, errors.Wrap(err, "list default recommendations")
	}
	defer rows.Close()

	var recs []*store.DefaultRecommendation
	for rows.Next() {
		var rec store.DefaultRecommendation
		if err := rows.Scan(&rec.Position, &rec.ProductID, &rec.Score, &rec.Reason); err != nil {
			return nil, errors.Wrap(err, "scan default recommendation")
		}
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list default recommendations")
	}
	return recs, nil
}

func (d *DB) UpsertDefaultRecommendation(ctx context.Context, rec *store.DefaultRecommendation) (*store.DefaultRecommendation, error) {
	stmt := `
		INSERT INTO default_recommendation (position, product_id, similarity_score, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (position) DO UPDATE SET
			product_id = excluded.product_id,
			similarity_score = excluded.similarity_score,
			reason = excluded.reason
	`
	_, err := d.db.ExecContext(ctx, stmt, rec.Position, rec.ProductID, rec.Score, rec.Reason)
	if err != nil {
		return nil, errors.Wrapf(err, "upsert default recommendation at position %d", rec.Position)
	}
	return rec, nil
}
