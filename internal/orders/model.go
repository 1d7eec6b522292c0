package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var (
	// ErrInvalidOrder indicates order data failing validation.
	ErrInvalidOrder = errors.New("orders: invalid order")
	// ErrInvalidTransition indicates a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("orders: invalid status transition")
	// ErrQuoteNotApproved indicates an order placed from a non-approved quote.
	ErrQuoteNotApproved = errors.New("orders: quote is not approved")
)

// transitions holds the allowed lifecycle moves. Cancellation is possible
// until the order ships.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered},
}

// CanTransition reports whether the lifecycle allows moving from one
// status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order is a confirmed sale. Its lines consume raw materials through the
// product BOM, feeding the cost ledger as outbound events at OrderDate.
type Order struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	QuoteID    *int64          `json:"quote_id,omitempty"`
	Status     OrderStatus     `json:"status"`
	OrderDate  time.Time       `json:"order_date"`
	Total      decimal.Decimal `json:"total"`
	Lines      []OrderLine     `json:"lines,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderLine is one purchased product position.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
