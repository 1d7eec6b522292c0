package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tlaloc-sg/tlaloc-erp/internal/quotes"
)

// QuoteReader loads quotes when an order is placed from one.
type QuoteReader interface {
	Get(ctx context.Context, id int64) (*quotes.Quote, error)
}

// Notifier publishes order lifecycle events. Implementations must not
// block; delivery happens through the background queue.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *Order)
	OrderStatusChanged(ctx context.Context, order *Order)
}

// Service owns the order lifecycle.
type Service struct {
	repo     Repository
	quotes   QuoteReader
	notifier Notifier
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, quoteReader QuoteReader) *Service {
	return &Service{repo: repo, quotes: quoteReader, now: time.Now}
}

// WithNotifier attaches lifecycle notifications. Nil leaves them off.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// CreateFromQuote places an order carrying over the approved quote's lines
// and stamped prices. The order total is the quote's frozen grand total, so
// the customer pays exactly what was quoted.
func (s *Service) CreateFromQuote(ctx context.Context, customerID, quoteID int64) (*Order, error) {
	quote, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.CustomerID != customerID {
		return nil, fmt.Errorf("%w: quote %d does not belong to customer %d", ErrInvalidOrder, quoteID, customerID)
	}
	if quote.Status != quotes.QuoteStatusApproved {
		return nil, ErrQuoteNotApproved
	}
	if quote.ValidUntil != nil && quote.ValidUntil.Before(s.now()) {
		return nil, fmt.Errorf("%w: quote %d expired", ErrQuoteNotApproved, quoteID)
	}

	order := Order{
		CustomerID: customerID,
		QuoteID:    &quoteID,
		Status:     OrderStatusPending,
		OrderDate:  s.now().UTC(),
		Total:      quote.GrandTotal,
	}
	for _, l := range quote.Lines {
		order.Lines = append(order.Lines, OrderLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("orders: create: %w", err)
	}
	placed, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, placed)
	}
	return placed, nil
}

// Create places a direct order without a quote. Line prices come from the
// caller, already resolved against the catalog.
func (s *Service) Create(ctx context.Context, customerID int64, lines []OrderLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", ErrInvalidOrder)
	}
	total := decimal.Zero
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: quantity must be positive for product %d", ErrInvalidOrder, l.ProductID)
		}
		total = total.Add(l.Quantity.Mul(l.UnitPrice))
	}

	order := Order{
		CustomerID: customerID,
		Status:     OrderStatusPending,
		OrderDate:  s.now().UTC(),
		Total:      total.Round(2),
		Lines:      lines,
	}
	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("orders: create: %w", err)
	}
	placed, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, placed)
	}
	return placed, nil
}

// Get fetches an order with lines.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, customerID int64, status *OrderStatus, page, perPage int) ([]Order, int, error) {
	return s.repo.List(ctx, customerID, status, page, perPage)
}

// Transition moves an order along its lifecycle.
func (s *Service) Transition(ctx context.Context, id int64, to OrderStatus) (*Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("orders: transition: %w", err)
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.OrderStatusChanged(ctx, updated)
	}
	return updated, nil
}
