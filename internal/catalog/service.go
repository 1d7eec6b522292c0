package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidProduct indicates product data failing catalog rules.
var ErrInvalidProduct = errors.New("catalog: invalid product")

// Service owns catalog business rules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns products matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a product after normalizing its SKU.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := validateProduct(&product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

// Update replaces an existing product's data.
func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if err := validateProduct(&product); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, product)
}

// Deactivate soft-deletes a product. Historic quotes keep referencing it.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// BasePrices resolves current prices for active products. Used by the
// quoting flow, which treats a missing ID as an unknown product.
func (s *Service) BasePrices(ctx context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	return s.repo.BasePrices(ctx, ids)
}

func validateProduct(p *Product) error {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	p.Name = strings.TrimSpace(p.Name)
	if p.SKU == "" {
		return fmt.Errorf("%w: sku is required", ErrInvalidProduct)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base price cannot be negative", ErrInvalidProduct)
	}
	return nil
}
