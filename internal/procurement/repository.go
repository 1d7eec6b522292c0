package procurement

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/db"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Repository persists purchases and their lines.
type Repository interface {
	Create(ctx context.Context, p Purchase) (int64, error)
	Get(ctx context.Context, id int64) (*Purchase, error)
	List(ctx context.Context, supplierID int64, page, perPage int) ([]Purchase, int, error)
	MarkReceived(ctx context.Context, id int64, at time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO purchases (supplier_id, status, purchase_date, total, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, now(), now()) RETURNING id`,
			p.SupplierID, p.Status, p.PurchaseDate, p.Total).Scan(&id)
		if err != nil {
			return err
		}

		for _, line := range p.Lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO purchase_lines (purchase_id, material_id, quantity, unit_cost)
				 VALUES ($1, $2, $3, $4)`,
				id, line.MaterialID, line.Quantity, line.UnitCost)
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

func (r *repository) Get(ctx context.Context, id int64) (*Purchase, error) {
	var p Purchase
	err := r.db.QueryRow(ctx,
		`SELECT p.id, p.supplier_id, s.name, p.status, p.purchase_date, p.received_at,
			p.total, p.created_at, p.updated_at
		 FROM purchases p
		 JOIN suppliers s ON s.id = p.supplier_id
		 WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.SupplierID, &p.SupplierName, &p.Status, &p.PurchaseDate,
		&p.ReceivedAt, &p.Total, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT pl.id, pl.purchase_id, pl.material_id, m.name, pl.quantity, pl.unit_cost
		 FROM purchase_lines pl
		 JOIN materials m ON m.id = pl.material_id
		 WHERE pl.purchase_id = $1
		 ORDER BY pl.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l PurchaseLine
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.MaterialID, &l.MaterialName, &l.Quantity, &l.UnitCost); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, l)
	}
	return &p, rows.Err()
}

func (r *repository) List(ctx context.Context, supplierID int64, page, perPage int) ([]Purchase, int, error) {
	where := ``
	args := []any{}
	if supplierID != 0 {
		where = ` WHERE p.supplier_id = $1`
		args = append(args, supplierID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	if offset < 0 {
		offset = 0
	}
	args = append(args, perPage, offset)
	limitPos := len(args) - 1

	query := `SELECT p.id, p.supplier_id, s.name, p.status, p.purchase_date, p.received_at,
			p.total, p.created_at, p.updated_at
		FROM purchases p
		JOIN suppliers s ON s.id = p.supplier_id` + where +
		` ORDER BY p.purchase_date DESC, p.id DESC` +
		` LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(limitPos+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.SupplierName, &p.Status, &p.PurchaseDate,
			&p.ReceivedAt, &p.Total, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) MarkReceived(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE purchases SET status = $2, received_at = $3, updated_at = now() WHERE id = $1`,
		id, PurchaseStatusReceived, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
