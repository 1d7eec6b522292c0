package materials

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material is a raw input tracked by the costing ledger.
type Material struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BOMLine states how much of a material one unit of a product consumes.
type BOMLine struct {
	ProductID    int64           `json:"product_id"`
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name,omitempty"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
}
