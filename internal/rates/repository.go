package rates

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/db"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// Repository persists the pricing reference tables.
type Repository interface {
	ListTiers(ctx context.Context) ([]InstallTier, error)
	ReplaceTiers(ctx context.Context, tiers []InstallTier) error
	ListRegions(ctx context.Context) ([]RegionRate, error)
	GetRegion(ctx context.Context, code string) (RegionRate, error)
	UpsertRegion(ctx context.Context, rate RegionRate) error
	DeleteRegion(ctx context.Context, code string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListTiers(ctx context.Context) ([]InstallTier, error) {
	query := `SELECT id, min_qty, max_qty, base_cost, created_at, updated_at
		FROM install_tiers ORDER BY min_qty`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []InstallTier
	for rows.Next() {
		var t InstallTier
		if err := rows.Scan(&t.ID, &t.MinQty, &t.MaxQty, &t.BaseCost, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// ReplaceTiers swaps the whole tier table in one transaction. The tier set
// is validated as a partition before it reaches this method, so a partial
// write would leave pricing broken; all-or-nothing is required.
func (r *repository) ReplaceTiers(ctx context.Context, tiers []InstallTier) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM install_tiers`); err != nil {
			return err
		}
		for _, t := range tiers {
			_, err := tx.Exec(ctx,
				`INSERT INTO install_tiers (min_qty, max_qty, base_cost, created_at, updated_at)
				 VALUES ($1, $2, $3, now(), now())`,
				t.MinQty, t.MaxQty, t.BaseCost)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) ListRegions(ctx context.Context) ([]RegionRate, error) {
	query := `SELECT code, name, distance_km, ship_per_km, transport_per_km, is_home, created_at, updated_at
		FROM region_rates ORDER BY code`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []RegionRate
	for rows.Next() {
		var reg RegionRate
		if err := rows.Scan(&reg.Code, &reg.Name, &reg.DistanceKm, &reg.ShipPerKm, &reg.TransportPerKm, &reg.IsHome, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		regions = append(regions, reg)
	}
	return regions, rows.Err()
}

func (r *repository) GetRegion(ctx context.Context, code string) (RegionRate, error) {
	query := `SELECT code, name, distance_km, ship_per_km, transport_per_km, is_home, created_at, updated_at
		FROM region_rates WHERE code = $1`
	var reg RegionRate
	err := r.db.QueryRow(ctx, query, code).Scan(&reg.Code, &reg.Name, &reg.DistanceKm, &reg.ShipPerKm, &reg.TransportPerKm, &reg.IsHome, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RegionRate{}, shared.ErrNotFound
		}
		return RegionRate{}, err
	}
	return reg, nil
}

func (r *repository) UpsertRegion(ctx context.Context, rate RegionRate) error {
	query := `INSERT INTO region_rates (code, name, distance_km, ship_per_km, transport_per_km, is_home, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			distance_km = EXCLUDED.distance_km,
			ship_per_km = EXCLUDED.ship_per_km,
			transport_per_km = EXCLUDED.transport_per_km,
			is_home = EXCLUDED.is_home,
			updated_at = now()`
	_, err := r.db.Exec(ctx, query, rate.Code, rate.Name, rate.DistanceKm, rate.ShipPerKm, rate.TransportPerKm, rate.IsHome)
	return err
}

func (r *repository) DeleteRegion(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM region_rates WHERE code = $1 AND NOT is_home`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
