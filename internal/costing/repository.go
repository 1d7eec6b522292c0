package costing

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads the two event streams for a material. Both queries
// return rows ordered by date so the calculator's stable sort only has to
// interleave them.
type Repository interface {
	MaterialExists(ctx context.Context, materialID int64) (bool, error)
	PurchaseEvents(ctx context.Context, materialID int64, from, to time.Time) ([]Event, error)
	ConsumptionEvents(ctx context.Context, materialID int64, from, to time.Time) ([]Event, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) MaterialExists(ctx context.Context, materialID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM materials WHERE id = $1)`, materialID).Scan(&exists)
	return exists, err
}

func (r *repository) PurchaseEvents(ctx context.Context, materialID int64, from, to time.Time) ([]Event, error) {
	query := `
		SELECT p.purchase_date, pl.quantity, pl.unit_cost
		FROM purchases p
		JOIN purchase_lines pl ON pl.purchase_id = p.id
		WHERE pl.material_id = $1
		  AND ($2::timestamptz IS NULL OR p.purchase_date >= $2)
		  AND ($3::timestamptz IS NULL OR p.purchase_date <= $3)
		ORDER BY p.purchase_date`
	rows, err := r.db.Query(ctx, query, materialID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e := Event{Kind: EventIn}
		if err := rows.Scan(&e.Date, &e.Qty, &e.UnitCost); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *repository) ConsumptionEvents(ctx context.Context, materialID int64, from, to time.Time) ([]Event, error) {
	// Order lines expand to material usage through the product BOM.
	query := `
		SELECT o.order_date, ol.quantity * bom.qty_per_unit
		FROM orders o
		JOIN order_lines ol ON ol.order_id = o.id
		JOIN product_bom bom ON bom.product_id = ol.product_id
		WHERE bom.material_id = $1
		  AND o.status <> 'CANCELLED'
		  AND ($2::timestamptz IS NULL OR o.order_date >= $2)
		  AND ($3::timestamptz IS NULL OR o.order_date <= $3)
		ORDER BY o.order_date`
	rows, err := r.db.Query(ctx, query, materialID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e := Event{Kind: EventOut}
		if err := rows.Scan(&e.Date, &e.Qty); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
