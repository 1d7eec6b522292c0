package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSupplier indicates supplier data failing validation.
var ErrInvalidSupplier = errors.New("suppliers: invalid supplier")

// Service owns supplier business rules.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether an active supplier with the given id exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	if err := validateSupplier(&supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) error {
	if err := validateSupplier(&supplier); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, supplier)
}

// Deactivate soft-deletes a supplier. Historic purchases keep referencing it.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

func validateSupplier(s *Supplier) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSupplier)
	}
	return nil
}
