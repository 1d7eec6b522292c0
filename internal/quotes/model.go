package quotes

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tlaloc-sg/tlaloc-erp/internal/pricing"
)

// QuoteStatus enumerates the quote lifecycle states.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusApproved QuoteStatus = "APPROVED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
	// QuoteStatusExpired is set by the nightly sweep once an approved
	// quote passes its validity window.
	QuoteStatusExpired QuoteStatus = "EXPIRED"
)

var (
	// ErrInvalidStateTransition indicates an approve/reject on a non-draft quote.
	ErrInvalidStateTransition = errors.New("quotes: invalid state transition")
	// ErrMissingOptions indicates an approval before fulfillment options were set.
	ErrMissingOptions = errors.New("quotes: fulfillment options never set")
	// ErrUnknownProduct indicates a quote line referencing a missing product.
	ErrUnknownProduct = errors.New("quotes: unknown product")
	// ErrInvalidQuantity indicates a non-positive line quantity.
	ErrInvalidQuantity = errors.New("quotes: quantity must be positive")
)

// Quote is a customer price request. The breakdown fields cache the last
// computed pricing and are frozen when the quote is approved.
type Quote struct {
	ID         int64       `json:"id"`
	CustomerID int64       `json:"customer_id"`
	Status     QuoteStatus `json:"status"`
	QuoteDate  time.Time   `json:"quote_date"`
	ValidUntil *time.Time  `json:"valid_until,omitempty"`

	Fulfillment      *pricing.Fulfillment `json:"fulfillment,omitempty"`
	RegionCode       *string              `json:"region_code,omitempty"`
	ManualDistanceKm *decimal.Decimal     `json:"manual_distance_km,omitempty"`

	ProductsSubtotal decimal.Decimal `json:"products_subtotal"`
	InstallBase      decimal.Decimal `json:"install_base"`
	TransportCost    decimal.Decimal `json:"transport_cost"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	GrandTotal       decimal.Decimal `json:"grand_total"`

	Lines     []QuoteLine `json:"lines,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// QuoteLine is one quoted product position. UnitPrice stays zero on drafts
// and is stamped with the product's base price at approval.
type QuoteLine struct {
	ID          int64           `json:"id"`
	QuoteID     int64           `json:"quote_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
