package rates

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallTier is one band of the flat-fee installation schedule.
type InstallTier struct {
	ID        int64           `json:"id"`
	MinQty    int64           `json:"min_qty"`
	MaxQty    *int64          `json:"max_qty,omitempty"`
	BaseCost  decimal.Decimal `json:"base_cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RegionRate holds per-destination distance and per-km charges. Exactly one
// region is flagged as home; it has distance zero and zero rates and is
// exempt from all distance charges.
type RegionRate struct {
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	DistanceKm     decimal.Decimal `json:"distance_km"`
	ShipPerKm      decimal.Decimal `json:"ship_per_km"`
	TransportPerKm decimal.Decimal `json:"transport_per_km"`
	IsHome         bool            `json:"is_home"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
