package procurement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus enumerates the purchase lifecycle states.
type PurchaseStatus string

const (
	PurchaseStatusOrdered  PurchaseStatus = "ORDERED"
	PurchaseStatusReceived PurchaseStatus = "RECEIVED"
)

var (
	// ErrInvalidPurchase indicates purchase data failing validation.
	ErrInvalidPurchase = errors.New("procurement: invalid purchase")
	// ErrAlreadyReceived indicates a receive on a received purchase.
	ErrAlreadyReceived = errors.New("procurement: purchase already received")
)

// Purchase is a raw material buy from a supplier. Its lines feed the
// material cost ledger as inbound events dated at PurchaseDate.
type Purchase struct {
	ID           int64           `json:"id"`
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	Status       PurchaseStatus  `json:"status"`
	PurchaseDate time.Time       `json:"purchase_date"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Lines        []PurchaseLine  `json:"lines,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PurchaseLine is one material position on a purchase.
type PurchaseLine struct {
	ID           int64           `json:"id"`
	PurchaseID   int64           `json:"purchase_id"`
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}
