package materials

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/db"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Repository persists materials and product bills of material.
type Repository interface {
	List(ctx context.Context) ([]Material, error)
	Get(ctx context.Context, id int64) (Material, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, m Material) (Material, error)
	Update(ctx context.Context, id int64, m Material) error
	ProductBOM(ctx context.Context, productID int64) ([]BOMLine, error)
	ReplaceProductBOM(ctx context.Context, productID int64, lines []BOMLine) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Material, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, code, name, unit, is_active, created_at, updated_at
		 FROM materials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Material, error) {
	var m Material
	err := r.db.QueryRow(ctx,
		`SELECT id, code, name, unit, is_active, created_at, updated_at
		 FROM materials WHERE id = $1`, id,
	).Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Material{}, shared.ErrNotFound
	}
	return m, err
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM materials WHERE id = $1 AND is_active)`, id,
	).Scan(&ok)
	return ok, err
}

func (r *repository) Create(ctx context.Context, m Material) (Material, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO materials (code, name, unit, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 RETURNING id, created_at, updated_at`,
		m.Code, m.Name, m.Unit, m.IsActive,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) Update(ctx context.Context, id int64, m Material) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE materials SET code = $2, name = $3, unit = $4, is_active = $5, updated_at = now()
		 WHERE id = $1`,
		id, m.Code, m.Name, m.Unit, m.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ProductBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	rows, err := r.db.Query(ctx,
		`SELECT b.product_id, b.material_id, m.name, b.qty_per_unit
		 FROM product_bom b
		 JOIN materials m ON m.id = b.material_id
		 WHERE b.product_id = $1
		 ORDER BY m.name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BOMLine
	for rows.Next() {
		var l BOMLine
		if err := rows.Scan(&l.ProductID, &l.MaterialID, &l.MaterialName, &l.QtyPerUnit); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ReplaceProductBOM swaps the product's bill of material in one transaction.
func (r *repository) ReplaceProductBOM(ctx context.Context, productID int64, lines []BOMLine) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM product_bom WHERE product_id = $1`, productID); err != nil {
			return err
		}
		for _, l := range lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO product_bom (product_id, material_id, qty_per_unit) VALUES ($1, $2, $3)`,
				productID, l.MaterialID, l.QtyPerUnit)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
