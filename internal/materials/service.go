package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMaterial indicates material or BOM data failing validation.
var ErrInvalidMaterial = errors.New("materials: invalid material")

// Service owns material and BOM business rules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Material, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Material, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether an active material with the given id exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, m Material) (Material, error) {
	if err := validateMaterial(&m); err != nil {
		return Material{}, err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id int64, m Material) error {
	if err := validateMaterial(&m); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, m)
}

// ProductBOM lists a product's bill of material.
func (s *Service) ProductBOM(ctx context.Context, productID int64) ([]BOMLine, error) {
	return s.repo.ProductBOM(ctx, productID)
}

// ReplaceProductBOM swaps a product's bill of material. Quantities must be
// positive and a material may appear at most once.
func (s *Service) ReplaceProductBOM(ctx context.Context, productID int64, lines []BOMLine) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if !l.QtyPerUnit.IsPositive() {
			return fmt.Errorf("%w: qty per unit must be positive for material %d", ErrInvalidMaterial, l.MaterialID)
		}
		if _, dup := seen[l.MaterialID]; dup {
			return fmt.Errorf("%w: duplicate material %d", ErrInvalidMaterial, l.MaterialID)
		}
		seen[l.MaterialID] = struct{}{}
		if _, err := s.repo.Get(ctx, l.MaterialID); err != nil {
			return err
		}
	}
	return s.repo.ReplaceProductBOM(ctx, productID, lines)
}

func validateMaterial(m *Material) error {
	m.Code = strings.ToUpper(strings.TrimSpace(m.Code))
	m.Name = strings.TrimSpace(m.Name)
	if m.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidMaterial)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMaterial)
	}
	if m.Unit == "" {
		m.Unit = "pz"
	}
	return nil
}
