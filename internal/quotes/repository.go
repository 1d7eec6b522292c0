package quotes

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/db"
	"github.com/tlaloc-sg/tlaloc-erp/internal/pricing"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Repository persists quotes and their lines.
type Repository interface {
	Create(ctx context.Context, quote Quote) (int64, error)
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	SaveOptions(ctx context.Context, id int64, opts pricing.Options, b pricing.Breakdown) error
	Approve(ctx context.Context, id int64, validUntil time.Time, linePrices map[int64]decimal.Decimal, b pricing.Breakdown) error
	UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, quote Quote) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO quotes (customer_id, status, quote_date, created_at, updated_at)
			 VALUES ($1, $2, $3, now(), now()) RETURNING id`,
			quote.CustomerID, quote.Status, quote.QuoteDate).Scan(&id)
		if err != nil {
			return err
		}

		for _, line := range quote.Lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO quote_lines (quote_id, product_id, quantity, unit_price)
				 VALUES ($1, $2, $3, 0)`,
				id, line.ProductID, line.Quantity)
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

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	query := `SELECT id, customer_id, status, quote_date, valid_until,
			fulfillment, region_code, manual_distance_km,
			products_subtotal, install_base, transport_cost, shipping_cost, grand_total,
			created_at, updated_at
		FROM quotes WHERE id = $1`

	var q Quote
	var fulfillment *string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.CustomerID, &q.Status, &q.QuoteDate, &q.ValidUntil,
		&fulfillment, &q.RegionCode, &q.ManualDistanceKm,
		&q.ProductsSubtotal, &q.InstallBase, &q.TransportCost, &q.ShippingCost, &q.GrandTotal,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if fulfillment != nil {
		f := pricing.Fulfillment(*fulfillment)
		q.Fulfillment = &f
	}

	lines, err := r.loadLines(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Lines = lines
	return &q, nil
}

func (r *repository) loadLines(ctx context.Context, quoteID int64) ([]QuoteLine, error) {
	query := `SELECT ql.id, ql.quote_id, ql.product_id, p.name, ql.quantity, ql.unit_price
		FROM quote_lines ql
		JOIN products p ON p.id = ql.product_id
		WHERE ql.quote_id = $1
		ORDER BY ql.id`
	rows, err := r.db.Query(ctx, query, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []QuoteLine
	for rows.Next() {
		var l QuoteLine
		if err := rows.Scan(&l.ID, &l.QuoteID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0

	if req.CustomerID > 0 {
		n++
		where += ` AND customer_id = $` + strconv.Itoa(n)
		args = append(args, req.CustomerID)
	}
	if req.Status != nil {
		n++
		where += ` AND status = $` + strconv.Itoa(n)
		args = append(args, *req.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, customer_id, status, quote_date, valid_until,
			products_subtotal, install_base, transport_cost, shipping_cost, grand_total,
			created_at, updated_at
		FROM quotes` + where + ` ORDER BY quote_date DESC, id DESC`

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	n++
	query += ` LIMIT $` + strconv.Itoa(n)
	args = append(args, perPage)
	n++
	query += ` OFFSET $` + strconv.Itoa(n)
	args = append(args, (page-1)*perPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		err := rows.Scan(&q.ID, &q.CustomerID, &q.Status, &q.QuoteDate, &q.ValidUntil,
			&q.ProductsSubtotal, &q.InstallBase, &q.TransportCost, &q.ShippingCost, &q.GrandTotal,
			&q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, q)
	}
	return quotes, total, rows.Err()
}

// SaveOptions overwrites the stored fulfillment options and cached
// breakdown. Last write wins; no history is kept.
func (r *repository) SaveOptions(ctx context.Context, id int64, opts pricing.Options, b pricing.Breakdown) error {
	query := `UPDATE quotes SET
			fulfillment = $1,
			region_code = NULLIF($2, ''),
			manual_distance_km = $3,
			products_subtotal = $4,
			install_base = $5,
			transport_cost = $6,
			shipping_cost = $7,
			grand_total = $8,
			updated_at = now()
		WHERE id = $9`
	tag, err := r.db.Exec(ctx, query,
		string(opts.Fulfillment), opts.RegionCode, opts.ManualDistanceKm,
		b.Products, b.InstallBase, b.Transport, b.Shipping, b.GrandTotal, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Approve freezes the breakdown, stamps line prices, and transitions the
// quote in one transaction.
func (r *repository) Approve(ctx context.Context, id int64, validUntil time.Time, linePrices map[int64]decimal.Decimal, b pricing.Breakdown) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for productID, price := range linePrices {
			_, err := tx.Exec(ctx,
				`UPDATE quote_lines SET unit_price = $1 WHERE quote_id = $2 AND product_id = $3`,
				price, id, productID)
			if err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE quotes SET
				status = $1,
				valid_until = $2,
				products_subtotal = $3,
				install_base = $4,
				transport_cost = $5,
				shipping_cost = $6,
				grand_total = $7,
				updated_at = now()
			WHERE id = $8`,
			QuoteStatusApproved, validUntil,
			b.Products, b.InstallBase, b.Transport, b.Shipping, b.GrandTotal, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE quotes SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
