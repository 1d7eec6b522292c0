package quotes

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateQuoteRequest opens a draft quote with product lines.
type CreateQuoteRequest struct {
	Lines []CreateQuoteLine `json:"lines" validate:"required,min=1,dive"`
}

// CreateQuoteLine is one requested product position.
type CreateQuoteLine struct {
	ProductID int64           `json:"product_id" validate:"required,min=1"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// OptionsRequest carries the fulfillment choices for preview or set-options.
type OptionsRequest struct {
	Fulfillment      string           `json:"fulfillment" validate:"required"`
	RegionCode       string           `json:"region_code,omitempty"`
	ManualDistanceKm *decimal.Decimal `json:"manual_distance_km,omitempty"`
}

// ApproveRequest optionally overrides the approval validity window.
type ApproveRequest struct {
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// ListQuotesRequest filters the quote listing.
type ListQuotesRequest struct {
	CustomerID int64
	Status     *QuoteStatus
	Page       int
	PerPage    int
}
