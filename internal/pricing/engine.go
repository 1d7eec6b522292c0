package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Calculate prices a set of quote lines under the given fulfillment options.
// It is pure: identical inputs always produce identical breakdowns, so the
// same call backs both the preview endpoint and the persisted recompute on
// option changes and approval.
//
// Rounding policy: each component is rounded half-away-from-zero to two
// fraction digits before summing, so the grand total identity holds on the
// rounded values.
func Calculate(lines []Line, opts Options, table RateTable) (Breakdown, error) {
	totalQty := int64(0)
	products := decimal.Zero
	for _, l := range lines {
		// Tier lookup counts whole units even when quantities are stored
		// as decimals.
		totalQty += l.Quantity.IntPart()
		products = products.Add(l.Quantity.Mul(l.UnitPrice))
	}

	installBase := decimal.Zero
	transport := decimal.Zero
	shipping := decimal.Zero

	region := NormalizeRegion(opts.RegionCode)

	switch opts.Fulfillment {
	case FulfillmentDevicesOnly:
		// No extras and no region lookup, even if a code was supplied.

	case FulfillmentInstallation:
		if totalQty > 0 {
			tier, ok := matchTier(table.Tiers, totalQty)
			if !ok {
				return Breakdown{}, fmt.Errorf("%w: %d units", ErrNoTierForQuantity, totalQty)
			}
			installBase = tier.BaseCost
		}
		// Region is optional for installation: absence or the home region
		// means no transport charge.
		if region != "" && region != table.HomeRegion {
			rate, ok := table.Regions[region]
			if !ok {
				return Breakdown{}, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
			}
			transport = chargeableKm(opts.ManualDistanceKm, rate.DistanceKm).Mul(rate.TransportPerKm)
		}

	case FulfillmentShipping:
		if region == "" {
			return Breakdown{}, ErrRegionRequired
		}
		if region != table.HomeRegion {
			rate, ok := table.Regions[region]
			if !ok {
				return Breakdown{}, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
			}
			shipping = chargeableKm(opts.ManualDistanceKm, rate.DistanceKm).Mul(rate.ShipPerKm)
		}

	default:
		return Breakdown{}, fmt.Errorf("%w: %q", ErrInvalidFulfillment, opts.Fulfillment)
	}

	b := Breakdown{
		Products:    products.Round(2),
		InstallBase: installBase.Round(2),
		Transport:   transport.Round(2),
		Shipping:    shipping.Round(2),
	}
	b.GrandTotal = b.Products.Add(b.InstallBase).Add(b.Transport).Add(b.Shipping).Round(2)
	return b, nil
}

// ValidateTiers checks that the tier table partitions the positive integers:
// sorted by MinQty, starting at 1, contiguous, non-overlapping, and with an
// open-ended last band. Rate administration rejects tier sets that fail this.
func ValidateTiers(tiers []InstallTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("pricing: tier table is empty")
	}
	sorted := make([]InstallTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQty < sorted[j].MinQty })

	if sorted[0].MinQty != 1 {
		return fmt.Errorf("pricing: first tier must start at quantity 1, starts at %d", sorted[0].MinQty)
	}
	for i, t := range sorted {
		last := i == len(sorted)-1
		if last {
			if t.MaxQty != nil {
				return fmt.Errorf("pricing: last tier must be open-ended")
			}
			break
		}
		if t.MaxQty == nil {
			return fmt.Errorf("pricing: only the last tier may be open-ended")
		}
		if *t.MaxQty < t.MinQty {
			return fmt.Errorf("pricing: tier [%d,%d] is inverted", t.MinQty, *t.MaxQty)
		}
		if next := sorted[i+1].MinQty; next != *t.MaxQty+1 {
			return fmt.Errorf("pricing: gap or overlap between quantity %d and %d", *t.MaxQty, next)
		}
	}
	return nil
}

func matchTier(tiers []InstallTier, qty int64) (InstallTier, bool) {
	sorted := make([]InstallTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQty < sorted[j].MinQty })
	for _, t := range sorted {
		if qty >= t.MinQty && (t.MaxQty == nil || qty <= *t.MaxQty) {
			return t, true
		}
	}
	return InstallTier{}, false
}

// chargeableKm picks the manual override when present and clamps negatives
// to zero.
func chargeableKm(manual *decimal.Decimal, configured decimal.Decimal) decimal.Decimal {
	km := configured
	if manual != nil {
		km = *manual
	}
	if km.IsNegative() {
		return decimal.Zero
	}
	return km
}

// NormalizeRegion trims and uppercases a region code so lookups and
// persisted rows agree on the canonical form.
func NormalizeRegion(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
