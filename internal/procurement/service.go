package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaterialDirectory checks material references on purchase lines.
type MaterialDirectory interface {
	Exists(ctx context.Context, materialID int64) (bool, error)
}

// SupplierDirectory checks the supplier reference on a purchase.
type SupplierDirectory interface {
	Exists(ctx context.Context, supplierID int64) (bool, error)
}

// Service owns the purchase lifecycle.
type Service struct {
	repo      Repository
	materials MaterialDirectory
	suppliers SupplierDirectory
	now       func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, materials MaterialDirectory, suppliers SupplierDirectory) *Service {
	return &Service{repo: repo, materials: materials, suppliers: suppliers, now: time.Now}
}

// Create records a purchase in ORDERED state. The total is derived from
// the lines, never trusted from the caller.
func (s *Service) Create(ctx context.Context, p Purchase) (*Purchase, error) {
	if len(p.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", ErrInvalidPurchase)
	}
	ok, err := s.suppliers.Exists(ctx, p.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("procurement: verify supplier: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown supplier %d", ErrInvalidPurchase, p.SupplierID)
	}

	total := decimal.Zero
	for _, l := range p.Lines {
		if !l.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: quantity must be positive for material %d", ErrInvalidPurchase, l.MaterialID)
		}
		if l.UnitCost.IsNegative() {
			return nil, fmt.Errorf("%w: unit cost cannot be negative for material %d", ErrInvalidPurchase, l.MaterialID)
		}
		exists, err := s.materials.Exists(ctx, l.MaterialID)
		if err != nil {
			return nil, fmt.Errorf("procurement: verify material: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: unknown material %d", ErrInvalidPurchase, l.MaterialID)
		}
		total = total.Add(l.Quantity.Mul(l.UnitCost))
	}

	p.Status = PurchaseStatusOrdered
	p.Total = total
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = s.now().UTC()
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("procurement: create: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get fetches a purchase with lines.
func (s *Service) Get(ctx context.Context, id int64) (*Purchase, error) {
	return s.repo.Get(ctx, id)
}

// List returns purchases, optionally filtered by supplier.
func (s *Service) List(ctx context.Context, supplierID int64, page, perPage int) ([]Purchase, int, error) {
	return s.repo.List(ctx, supplierID, page, perPage)
}

// Receive marks an ordered purchase as received.
func (s *Service) Receive(ctx context.Context, id int64) (*Purchase, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == PurchaseStatusReceived {
		return nil, ErrAlreadyReceived
	}
	if err := s.repo.MarkReceived(ctx, id, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("procurement: receive: %w", err)
	}
	return s.repo.Get(ctx, id)
}
