package orders

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/db"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Repository persists orders and their lines.
type Repository interface {
	Create(ctx context.Context, o Order) (int64, error)
	Get(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, customerID int64, status *OrderStatus, page, perPage int) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id int64, status OrderStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO orders (customer_id, quote_id, status, order_date, total, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now(), now()) RETURNING id`,
			o.CustomerID, o.QuoteID, o.Status, o.OrderDate, o.Total).Scan(&id)
		if err != nil {
			return err
		}

		for _, line := range o.Lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO order_lines (order_id, product_id, quantity, unit_price)
				 VALUES ($1, $2, $3, $4)`,
				id, line.ProductID, line.Quantity, line.UnitPrice)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx,
		`SELECT id, customer_id, quote_id, status, order_date, total, created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.CustomerID, &o.QuoteID, &o.Status, &o.OrderDate, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT ol.id, ol.order_id, ol.product_id, p.name, ol.quantity, ol.unit_price
		 FROM order_lines ol
		 JOIN products p ON p.id = ol.product_id
		 WHERE ol.order_id = $1
		 ORDER BY ol.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

func (r *repository) List(ctx context.Context, customerID int64, status *OrderStatus, page, perPage int) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0

	if customerID != 0 {
		n++
		where += ` AND customer_id = $` + strconv.Itoa(n)
		args = append(args, customerID)
	}
	if status != nil {
		n++
		where += ` AND status = $` + strconv.Itoa(n)
		args = append(args, *status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	if offset < 0 {
		offset = 0
	}
	args = append(args, perPage, offset)
	query := `SELECT id, customer_id, quote_id, status, order_date, total, created_at, updated_at
		FROM orders` + where +
		` ORDER BY order_date DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.QuoteID, &o.Status, &o.OrderDate,
			&o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status OrderStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
