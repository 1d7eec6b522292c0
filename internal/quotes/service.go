package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tlaloc-sg/tlaloc-erp/internal/observability"
	"github.com/tlaloc-sg/tlaloc-erp/internal/pricing"
)

// defaultValidity is applied when an approval does not specify a window.
const defaultValidity = 30 * 24 * time.Hour

// PriceCatalog resolves current product base prices. Draft lines never
// trust their stored price; the engine always prices against the catalog.
type PriceCatalog interface {
	BasePrices(ctx context.Context, productIDs []int64) (map[int64]decimal.Decimal, error)
}

// RateSource supplies the pricing reference snapshot.
type RateSource interface {
	Snapshot(ctx context.Context) (pricing.RateTable, error)
}

// Notifier publishes quote lifecycle events. Implementations must not
// block; delivery happens through the background queue.
type Notifier interface {
	QuoteApproved(ctx context.Context, quote *Quote)
}

// Service implements the quote lifecycle around the pricing engine.
type Service struct {
	repo     Repository
	catalog  PriceCatalog
	rates    RateSource
	metrics  *observability.Metrics
	notifier Notifier
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, catalog PriceCatalog, rates RateSource) *Service {
	return &Service{repo: repo, catalog: catalog, rates: rates, now: time.Now}
}

// WithMetrics attaches the domain counters. Safe to skip in tests.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// WithNotifier attaches lifecycle notifications. Nil leaves them off.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// Create opens a draft quote. Line prices are stamped at approval, not here.
func (s *Service) Create(ctx context.Context, customerID int64, req CreateQuoteRequest) (*Quote, error) {
	ids := make([]int64, 0, len(req.Lines))
	for _, l := range req.Lines {
		if !l.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, l.ProductID)
		}
		ids = append(ids, l.ProductID)
	}
	prices, err := s.catalog.BasePrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("quotes: verify products: %w", err)
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
		}
	}

	quote := Quote{
		CustomerID: customerID,
		Status:     QuoteStatusDraft,
		QuoteDate:  s.now().UTC(),
	}
	for _, l := range req.Lines {
		quote.Lines = append(quote.Lines, QuoteLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	id, err := s.repo.Create(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("quotes: create: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get fetches a quote with lines.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

// List returns quotes matching the filter.
func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}

// Preview computes a price breakdown without touching stored state.
func (s *Service) Preview(ctx context.Context, id int64, opts pricing.Options) (pricing.Breakdown, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return s.price(ctx, quote, opts)
}

// SetOptions computes the breakdown and persists it with the options onto
// the draft. Repeated calls overwrite; last write wins.
func (s *Service) SetOptions(ctx context.Context, id int64, opts pricing.Options) (pricing.Breakdown, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	if quote.Status != QuoteStatusDraft {
		return pricing.Breakdown{}, fmt.Errorf("%w: options are frozen once a quote leaves draft", ErrInvalidStateTransition)
	}

	// Store the same canonical code the engine prices with.
	opts.RegionCode = pricing.NormalizeRegion(opts.RegionCode)

	breakdown, err := s.price(ctx, quote, opts)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	if err := s.repo.SaveOptions(ctx, id, opts, breakdown); err != nil {
		return pricing.Breakdown{}, fmt.Errorf("quotes: save options: %w", err)
	}
	return breakdown, nil
}

// Approve recomputes with the stored options, stamps line prices at the
// current catalog price, freezes the breakdown and transitions the quote.
func (s *Service) Approve(ctx context.Context, id int64, req ApproveRequest) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != QuoteStatusDraft {
		return nil, fmt.Errorf("%w: only draft quotes can be approved", ErrInvalidStateTransition)
	}
	if quote.Fulfillment == nil {
		return nil, ErrMissingOptions
	}

	opts := pricing.Options{Fulfillment: *quote.Fulfillment}
	if quote.RegionCode != nil {
		opts.RegionCode = *quote.RegionCode
	}
	opts.ManualDistanceKm = quote.ManualDistanceKm

	breakdown, err := s.price(ctx, quote, opts)
	if err != nil {
		return nil, err
	}

	prices, err := s.linePrices(ctx, quote)
	if err != nil {
		return nil, err
	}

	validUntil := s.now().UTC().Add(defaultValidity)
	if req.ValidUntil != nil {
		validUntil = req.ValidUntil.UTC()
	}

	if err := s.repo.Approve(ctx, id, validUntil, prices, breakdown); err != nil {
		return nil, fmt.Errorf("quotes: approve: %w", err)
	}
	approved, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.QuoteApproved(ctx, approved)
	}
	return approved, nil
}

// Reject transitions a draft to rejected. No pricing is involved.
func (s *Service) Reject(ctx context.Context, id int64) (*Quote, error) {
	quote, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != QuoteStatusDraft {
		return nil, fmt.Errorf("%w: only draft quotes can be rejected", ErrInvalidStateTransition)
	}
	if err := s.repo.UpdateStatus(ctx, id, QuoteStatusRejected); err != nil {
		return nil, fmt.Errorf("quotes: reject: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) price(ctx context.Context, quote *Quote, opts pricing.Options) (pricing.Breakdown, error) {
	prices, err := s.linePrices(ctx, quote)
	if err != nil {
		return pricing.Breakdown{}, err
	}

	lines := make([]pricing.Line, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		lines = append(lines, pricing.Line{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: prices[l.ProductID],
		})
	}

	table, err := s.rates.Snapshot(ctx)
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("quotes: load rates: %w", err)
	}
	breakdown, err := pricing.Calculate(lines, opts, table)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	s.metrics.QuotePriced()
	return breakdown, nil
}

func (s *Service) linePrices(ctx context.Context, quote *Quote) (map[int64]decimal.Decimal, error) {
	ids := make([]int64, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		ids = append(ids, l.ProductID)
	}
	prices, err := s.catalog.BasePrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("quotes: load prices: %w", err)
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
		}
	}
	return prices, nil
}
