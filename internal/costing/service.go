package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tlaloc-sg/tlaloc-erp/internal/observability"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// ErrInvalidRange indicates from is after to.
var ErrInvalidRange = errors.New("costing: from must not be after to")

// Service produces cost ledgers from stored purchases and order consumption.
type Service struct {
	repo    Repository
	metrics *observability.Metrics
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// WithMetrics attaches the domain counters. Safe to skip in tests.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// Ledger computes the moving-average ledger for one material over an
// optional date range. Zero times leave the corresponding bound open.
func (s *Service) Ledger(ctx context.Context, materialID int64, from, to time.Time) ([]Row, error) {
	if materialID <= 0 {
		return nil, fmt.Errorf("costing: invalid material id %d", materialID)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, ErrInvalidRange
	}

	exists, err := s.repo.MaterialExists(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("costing: check material: %w", err)
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	ins, err := s.repo.PurchaseEvents(ctx, materialID, from, to)
	if err != nil {
		return nil, fmt.Errorf("costing: load purchase events: %w", err)
	}
	outs, err := s.repo.ConsumptionEvents(ctx, materialID, from, to)
	if err != nil {
		return nil, fmt.Errorf("costing: load consumption events: %w", err)
	}

	// IN events first so same-day ties resolve purchase-before-consumption.
	events := make([]Event, 0, len(ins)+len(outs))
	events = append(events, ins...)
	events = append(events, outs...)
	rows := ComputeLedger(events)
	s.metrics.LedgerComputed()
	return rows, nil
}
