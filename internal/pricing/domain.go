package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Fulfillment enumerates how quoted products reach the customer.
type Fulfillment string

const (
	// FulfillmentDevicesOnly means pickup at the depot, no extras.
	FulfillmentDevicesOnly Fulfillment = "DevicesOnly"
	// FulfillmentShipping means parcel delivery to the destination region.
	FulfillmentShipping Fulfillment = "Shipping"
	// FulfillmentInstallation means an on-site install crew is dispatched.
	FulfillmentInstallation Fulfillment = "Installation"
)

var (
	// ErrInvalidFulfillment indicates an unrecognized fulfillment mode.
	ErrInvalidFulfillment = errors.New("pricing: invalid fulfillment mode")
	// ErrRegionRequired indicates shipping was requested without a destination region.
	ErrRegionRequired = errors.New("pricing: destination region required for shipping")
	// ErrUnknownRegion indicates the region code has no configured rate.
	ErrUnknownRegion = errors.New("pricing: unknown region")
	// ErrNoTierForQuantity indicates a gap in the install tier table.
	ErrNoTierForQuantity = errors.New("pricing: no install tier covers quantity")
)

// Line is one quoted product position. UnitPrice carries the product's
// current base price as looked up by the caller, not the price stored on
// a draft line.
type Line struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Options captures the fulfillment choices made on a quote.
type Options struct {
	Fulfillment Fulfillment
	RegionCode  string
	// ManualDistanceKm overrides the region's configured depot distance
	// when set.
	ManualDistanceKm *decimal.Decimal
}

// InstallTier maps a band of total unit counts to a flat installation fee.
// MaxQty nil means the band is open-ended.
type InstallTier struct {
	MinQty   int64
	MaxQty   *int64
	BaseCost decimal.Decimal
}

// RegionRate holds the distance and per-km charges for one destination region.
type RegionRate struct {
	Code           string
	DistanceKm     decimal.Decimal
	ShipPerKm      decimal.Decimal
	TransportPerKm decimal.Decimal
}

// RateTable is the read-only reference snapshot the engine computes against.
// The caller fetches it up front; the engine never touches storage.
type RateTable struct {
	HomeRegion string
	Regions    map[string]RegionRate
	Tiers      []InstallTier
}

// Breakdown is the computed cost split of a quote. Each component is
// rounded to cents independently; GrandTotal sums the rounded parts.
type Breakdown struct {
	Products    decimal.Decimal `json:"products"`
	InstallBase decimal.Decimal `json:"install_base"`
	Transport   decimal.Decimal `json:"transport"`
	Shipping    decimal.Decimal `json:"shipping"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}
