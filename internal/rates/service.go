package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tlaloc-sg/tlaloc-erp/internal/pricing"
)

// ErrNoHomeRegion indicates the rate table has no designated home region.
var ErrNoHomeRegion = errors.New("rates: no home region configured")

// Service administers the pricing reference data and produces the
// immutable snapshot the pricing engine computes against.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Snapshot loads tiers and region rates into a pricing.RateTable. The
// caller gets a self-contained value; subsequent rate edits do not affect
// computations already in flight.
func (s *Service) Snapshot(ctx context.Context) (pricing.RateTable, error) {
	tiers, err := s.repo.ListTiers(ctx)
	if err != nil {
		return pricing.RateTable{}, fmt.Errorf("rates: load tiers: %w", err)
	}
	regions, err := s.repo.ListRegions(ctx)
	if err != nil {
		return pricing.RateTable{}, fmt.Errorf("rates: load regions: %w", err)
	}

	table := pricing.RateTable{
		Regions: make(map[string]pricing.RegionRate, len(regions)),
		Tiers:   make([]pricing.InstallTier, 0, len(tiers)),
	}
	for _, t := range tiers {
		table.Tiers = append(table.Tiers, pricing.InstallTier{
			MinQty:   t.MinQty,
			MaxQty:   t.MaxQty,
			BaseCost: t.BaseCost,
		})
	}
	for _, reg := range regions {
		table.Regions[reg.Code] = pricing.RegionRate{
			Code:           reg.Code,
			DistanceKm:     reg.DistanceKm,
			ShipPerKm:      reg.ShipPerKm,
			TransportPerKm: reg.TransportPerKm,
		}
		if reg.IsHome {
			table.HomeRegion = reg.Code
		}
	}
	if table.HomeRegion == "" {
		return pricing.RateTable{}, ErrNoHomeRegion
	}
	return table, nil
}

// ListTiers returns the installation fee schedule.
func (s *Service) ListTiers(ctx context.Context) ([]InstallTier, error) {
	return s.repo.ListTiers(ctx)
}

// ReplaceTiers validates and swaps the whole tier schedule. Tier edits are
// whole-table replacements because the partition invariant is a property
// of the set, not of individual rows.
func (s *Service) ReplaceTiers(ctx context.Context, tiers []InstallTier) error {
	check := make([]pricing.InstallTier, 0, len(tiers))
	for _, t := range tiers {
		check = append(check, pricing.InstallTier{MinQty: t.MinQty, MaxQty: t.MaxQty, BaseCost: t.BaseCost})
	}
	if err := pricing.ValidateTiers(check); err != nil {
		return err
	}
	return s.repo.ReplaceTiers(ctx, tiers)
}

// ListRegions returns all configured region rates.
func (s *Service) ListRegions(ctx context.Context) ([]RegionRate, error) {
	return s.repo.ListRegions(ctx)
}

// GetRegion fetches one region rate by normalized code.
func (s *Service) GetRegion(ctx context.Context, code string) (RegionRate, error) {
	return s.repo.GetRegion(ctx, normalizeCode(code))
}

// UpsertRegion creates or updates a region rate. The home region keeps
// zero distance and zero rates by construction.
func (s *Service) UpsertRegion(ctx context.Context, rate RegionRate) error {
	rate.Code = normalizeCode(rate.Code)
	if rate.Code == "" {
		return errors.New("rates: region code is required")
	}
	if rate.DistanceKm.IsNegative() || rate.ShipPerKm.IsNegative() || rate.TransportPerKm.IsNegative() {
		return errors.New("rates: distance and per-km rates must not be negative")
	}
	if rate.IsHome && !(rate.DistanceKm.IsZero() && rate.ShipPerKm.IsZero() && rate.TransportPerKm.IsZero()) {
		return errors.New("rates: home region must have zero distance and zero rates")
	}
	return s.repo.UpsertRegion(ctx, rate)
}

// DeleteRegion removes a region rate; the home region cannot be removed.
func (s *Service) DeleteRegion(ctx context.Context, code string) error {
	return s.repo.DeleteRegion(ctx, normalizeCode(code))
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
